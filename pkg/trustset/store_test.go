package trustset

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"go.inet256.org/trustd/pkg/valregistry/valregistrytest"
)

func TestStoreEmpty(t *testing.T) {
	var s Store
	require.Zero(t, s.Len())
	require.False(t, s.Allowed(newPublicKey(t, 0)))
	_, ok := s.Lookup(newPublicKey(t, 0))
	require.False(t, ok)
}

func TestStoreReplace(t *testing.T) {
	ctx := valregistrytest.Context(t)
	s := NewStore()
	snap := NewSnapshot(Extract(ctx, newSummary(t, 3)))
	prev := s.Replace(snap)
	require.Zero(t, prev.Len())

	for i := 0; i < 3; i++ {
		require.True(t, s.Allowed(newPublicKey(t, i)))
	}
	for i := 3; i < 10; i++ {
		require.False(t, s.Allowed(newPublicKey(t, i)))
	}

	// lookup returns exactly what extraction produced
	for k, want := range Extract(ctx, newSummary(t, 3)) {
		got, ok := s.Lookup(k)
		require.True(t, ok)
		require.True(t, want.Equal(got))
	}

	snap2 := NewSnapshot(Extract(ctx, newSummary(t, 1)))
	prev = s.Replace(snap2)
	require.Same(t, snap, prev)
	require.Same(t, snap2, s.Current())
	require.True(t, s.Allowed(newPublicKey(t, 0)))
	require.False(t, s.Allowed(newPublicKey(t, 1)))
}

func TestStoreLookupCopy(t *testing.T) {
	ctx := valregistrytest.Context(t)
	s := NewStore()
	s.Replace(NewSnapshot(Extract(ctx, newSummary(t, 1))))
	k := newPublicKey(t, 0)
	rec, ok := s.Lookup(k)
	require.True(t, ok)
	rec.Name = "changed"
	rec.P2PAddress = rec.P2PAddress[:0]

	rec2, ok := s.Lookup(k)
	require.True(t, ok)
	require.Equal(t, "validator-0", rec2.Name)
	require.Equal(t, "/ip4/127.0.0.1/tcp/8000", rec2.P2PAddress.String())
}

func TestStoreReplaceNil(t *testing.T) {
	s := NewStore()
	require.Panics(t, func() { s.Replace(nil) })
}

// TestStoreConcurrentReaders checks that readers never observe a partially installed trust set.
func TestStoreConcurrentReaders(t *testing.T) {
	ctx := valregistrytest.Context(t)
	const n = 8
	full := NewSnapshot(Extract(ctx, newSummary(t, n)))
	keys := make([]PublicKey, n)
	for i := range keys {
		keys[i] = newPublicKey(t, i)
	}
	s := NewStore()
	s.Replace(full)

	var stop atomic.Bool
	var violations atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				snap := s.Current()
				count := 0
				for _, k := range keys {
					if snap.Contains(k) {
						count++
					}
				}
				if count != n || !s.Allowed(keys[0]) {
					violations.Add(1)
				}
			}
		}()
	}
	summary := newSummary(t, n)
	for i := 0; i < 500; i++ {
		snap, _ := Collect(ctx, summary)
		s.Replace(snap)
	}
	stop.Store(true)
	wg.Wait()
	require.Zero(t, violations.Load())
}

func TestSnapshotList(t *testing.T) {
	ctx := valregistrytest.Context(t)
	summary := newSummary(t, 3)
	summary.ActiveValidators[0].Name = "charlie"
	summary.ActiveValidators[1].Name = "alice"
	summary.ActiveValidators[2].Name = "bob"
	snap := NewSnapshot(Extract(ctx, summary))
	var names []string
	for _, rec := range snap.List() {
		names = append(names, rec.Name)
	}
	require.Equal(t, []string{"alice", "bob", "charlie"}, names)

	count := 0
	for range snap.Keys() {
		count++
	}
	require.Equal(t, 3, count)
}

func TestAllowFunc(t *testing.T) {
	k := newPublicKey(t, 0)
	var a Allower = AllowFunc(func(x PublicKey) bool { return x == k })
	require.True(t, a.Allowed(k))
	require.False(t, a.Allowed(newPublicKey(t, 1)))
}

func TestStatic(t *testing.T) {
	var a Allower = NewStatic(newPublicKey(t, 0), newPublicKey(t, 2))
	require.True(t, a.Allowed(newPublicKey(t, 0)))
	require.False(t, a.Allowed(newPublicKey(t, 1)))
	require.True(t, a.Allowed(newPublicKey(t, 2)))
	require.False(t, Static(nil).Allowed(newPublicKey(t, 0)))
}
