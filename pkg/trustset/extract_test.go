package trustset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.inet256.org/trustd/pkg/valregistry"
	"go.inet256.org/trustd/pkg/valregistry/valregistrytest"
)

func TestExtractAllValid(t *testing.T) {
	ctx := valregistrytest.Context(t)
	for _, n := range []int{0, 1, 5, 20} {
		summary := newSummary(t, n)
		snap := NewSnapshot(Extract(ctx, summary))
		require.Equal(t, n, snap.Len())
		for i := 0; i < n; i++ {
			rec, ok := snap.Get(newPublicKey(t, i))
			require.True(t, ok)
			require.True(t, newPeerRecord(t, i).Equal(rec))
		}
	}
}

func TestExtractCorruptKey(t *testing.T) {
	ctx := valregistrytest.Context(t)
	const n = 5
	for bad := 0; bad < n; bad++ {
		summary := newSummary(t, n)
		summary.ActiveValidators[bad].NetworkPubkeyBytes = summary.ActiveValidators[bad].NetworkPubkeyBytes[:31]

		snap, stats := Collect(ctx, summary)
		require.Equal(t, n-1, snap.Len())
		require.Equal(t, n-1, stats.Accepted)
		require.Equal(t, 1, stats.Dropped[DropPublicKey])
		for i := 0; i < n; i++ {
			rec, ok := snap.Get(newPublicKey(t, i))
			if i == bad {
				require.False(t, ok)
				continue
			}
			require.True(t, ok)
			require.True(t, newPeerRecord(t, i).Equal(rec))
		}
	}
}

func TestExtractKeyNotOnCurve(t *testing.T) {
	ctx := valregistrytest.Context(t)
	summary := newSummary(t, 3)
	summary.ActiveValidators[2].NetworkPubkeyBytes = notAPoint()

	snap, stats := Collect(ctx, summary)
	require.Equal(t, 2, snap.Len())
	require.Equal(t, 2, stats.Accepted)
	require.Equal(t, 1, stats.Dropped[DropPublicKey])
	require.True(t, snap.Contains(newPublicKey(t, 0)))
	require.True(t, snap.Contains(newPublicKey(t, 1)))
}

func TestExtractInvalidAddress(t *testing.T) {
	ctx := valregistrytest.Context(t)
	const n = 4
	for _, addr := range []string{"", "not a multiaddr", "/ip4/300.0.0.1/tcp/1"} {
		summary := newSummary(t, n)
		summary.ActiveValidators[2].P2PAddress = addr

		snap, stats := Collect(ctx, summary)
		require.Equal(t, n-1, snap.Len())
		require.Equal(t, 1, stats.Dropped[DropAddress])
		require.Zero(t, stats.Dropped[DropPublicKey])
		require.False(t, snap.Contains(newPublicKey(t, 2)))
	}
}

func TestExtractBothInvalid(t *testing.T) {
	ctx := valregistrytest.Context(t)
	summary := newSummary(t, 3)
	summary.ActiveValidators[1].NetworkPubkeyBytes = nil
	summary.ActiveValidators[1].P2PAddress = "garbage"
	_, stats := Collect(ctx, summary)
	require.Equal(t, 2, stats.Accepted)
	require.Equal(t, 1, stats.TotalDropped())
}

func TestExtractDuplicateKey(t *testing.T) {
	ctx := valregistrytest.Context(t)
	summary := newSummary(t, 3)
	dup := valregistrytest.NewValidator(t, 0)
	dup.Name = "impostor"
	dup.P2PAddress = "/ip4/10.0.0.1/tcp/1"
	summary.ActiveValidators = append(summary.ActiveValidators, dup)

	var names []string
	for _, rec := range Extract(ctx, summary) {
		names = append(names, rec.Name)
	}
	require.Equal(t, []string{"validator-1", "validator-2", "impostor"}, names)

	snap, stats := Collect(ctx, summary)
	require.Equal(t, 1, stats.Dropped[DropDuplicate])
	require.Equal(t, 3, snap.Len())
	rec, ok := snap.Get(newPublicKey(t, 0))
	require.True(t, ok)
	require.Equal(t, "impostor", rec.Name)
	require.Equal(t, "/ip4/10.0.0.1/tcp/1", rec.P2PAddress.String())

	rec, ok = NewSnapshot(Extract(ctx, summary)).Get(newPublicKey(t, 0))
	require.True(t, ok)
	require.Equal(t, "impostor", rec.Name)
}

func TestExtractRestartable(t *testing.T) {
	ctx := valregistrytest.Context(t)
	summary := newSummary(t, 4)
	summary.ActiveValidators[0].P2PAddress = ""
	seq := Extract(ctx, summary)

	collect := func() (ret []PeerRecord) {
		for _, rec := range seq {
			ret = append(ret, rec)
		}
		return ret
	}
	first := collect()
	second := collect()
	require.Len(t, first, 3)
	require.Len(t, second, 3)
	for i := range first {
		require.True(t, first[i].Equal(second[i]))
	}

	// stopping early is allowed
	count := 0
	for range seq {
		count++
		break
	}
	require.Equal(t, 1, count)
}

func TestExtractNil(t *testing.T) {
	ctx := valregistrytest.Context(t)
	snap, stats := Collect(ctx, nil)
	require.Zero(t, snap.Len())
	require.Zero(t, stats.Accepted)
	require.Zero(t, NewSnapshot(Extract(ctx, nil)).Len())
}

func TestDecodeValidatorError(t *testing.T) {
	v := valregistrytest.NewValidator(t, 0)
	v.NetworkPubkeyBytes = v.NetworkPubkeyBytes[:31]
	_, err := DecodeValidator(v)
	require.Error(t, err)
	var entryErr EntryError
	require.ErrorAs(t, err, &entryErr)
	require.Equal(t, DropPublicKey, entryErr.Reason)
	require.Equal(t, "validator-0", entryErr.Name)
}

func newSummary(t testing.TB, n int) *valregistry.SystemStateSummary {
	summary := &valregistry.SystemStateSummary{}
	for i := 0; i < n; i++ {
		summary.ActiveValidators = append(summary.ActiveValidators, valregistrytest.NewValidator(t, i))
	}
	return summary
}
