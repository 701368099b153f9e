package trustset

import (
	"context"
	"fmt"
	"iter"

	"github.com/pkg/errors"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"go.inet256.org/trustd/pkg/valregistry"
)

// DropReason says why a validator did not make it into the trust set.
type DropReason string

const (
	DropPublicKey DropReason = "public_key"
	DropAddress   DropReason = "p2p_address"
	DropDuplicate DropReason = "duplicate"
)

// EntryError describes a single validator that was dropped during extraction.
// It is reported, never returned.
type EntryError struct {
	Name   string
	Reason DropReason
	Err    error
}

func (e EntryError) Error() string {
	return fmt.Sprintf("validator %q: invalid %s: %v", e.Name, e.Reason, e.Err)
}

func (e EntryError) Unwrap() error {
	return e.Err
}

// DecodeValidator turns an untrusted validator summary into a PeerRecord.
// The returned error is always an EntryError.
func DecodeValidator(v valregistry.ValidatorSummary) (PeerRecord, error) {
	pubKey, err := ParsePublicKey(v.NetworkPubkeyBytes)
	if err != nil {
		return PeerRecord{}, EntryError{Name: v.Name, Reason: DropPublicKey, Err: err}
	}
	addr, err := ParseAddr(v.P2PAddress)
	if err != nil {
		return PeerRecord{}, EntryError{Name: v.Name, Reason: DropAddress, Err: err}
	}
	return PeerRecord{
		Name:       v.Name,
		P2PAddress: addr,
		PublicKey:  pubKey,
	}, nil
}

// Extract yields a PeerRecord for every active validator in summary which has
// a valid public key and address. Invalid validators are logged and skipped.
// When several validators share a key, only the last of them is yielded.
//
// Nothing happens until the sequence is iterated, and every iteration starts over.
func Extract(ctx context.Context, summary *valregistry.SystemStateSummary) iter.Seq2[PublicKey, PeerRecord] {
	return func(yield func(PublicKey, PeerRecord) bool) {
		extract(ctx, summary, nil, yield)
	}
}

// ExtractStats counts the outcome of an extraction.
type ExtractStats struct {
	Accepted int
	Dropped  map[DropReason]int
}

// TotalDropped is the number of validators which were not accepted.
func (s ExtractStats) TotalDropped() (ret int) {
	for _, n := range s.Dropped {
		ret += n
	}
	return ret
}

// Collect extracts summary into a new Snapshot.
func Collect(ctx context.Context, summary *valregistry.SystemStateSummary) (*Snapshot, ExtractStats) {
	stats := ExtractStats{Dropped: map[DropReason]int{}}
	peers := map[PublicKey]PeerRecord{}
	extract(ctx, summary, func(e EntryError) {
		stats.Dropped[e.Reason]++
	}, func(k PublicKey, rec PeerRecord) bool {
		peers[k] = rec
		return true
	})
	stats.Accepted = len(peers)
	return &Snapshot{peers: peers}, stats
}

func extract(ctx context.Context, summary *valregistry.SystemStateSummary, onDrop func(EntryError), yield func(PublicKey, PeerRecord) bool) {
	if summary == nil {
		return
	}
	drop := func(v valregistry.ValidatorSummary, e EntryError) {
		logctx.Warn(ctx, "refusing to add peer to allow list",
			zap.String("name", e.Name),
			zap.String("sui_address", v.SuiAddress),
			zap.String("reason", string(e.Reason)),
			zap.Error(e.Err),
		)
		if onDrop != nil {
			onDrop(e)
		}
	}
	type decoded struct {
		v   valregistry.ValidatorSummary
		rec PeerRecord
	}
	recs := make([]decoded, 0, len(summary.ActiveValidators))
	last := make(map[PublicKey]int, len(summary.ActiveValidators))
	for _, v := range summary.ActiveValidators {
		rec, err := DecodeValidator(v)
		if err != nil {
			drop(v, err.(EntryError))
			continue
		}
		last[rec.PublicKey] = len(recs)
		recs = append(recs, decoded{v: v, rec: rec})
	}
	for i, d := range recs {
		if last[d.rec.PublicKey] != i {
			drop(d.v, EntryError{Name: d.v.Name, Reason: DropDuplicate, Err: errors.Errorf("public key %v is claimed again by a later validator", d.rec.PublicKey)})
			continue
		}
		logctx.Debugf(ctx, "adding public key %v for address %v", d.rec.PublicKey, d.rec.P2PAddress)
		if !yield(d.rec.PublicKey, d.rec) {
			return
		}
	}
}
