package trustset

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// Snapshot is an immutable trust set.
// It is built completely before it is installed in a Store, and never modified afterwards.
type Snapshot struct {
	peers map[PublicKey]PeerRecord
}

var emptySnapshot = &Snapshot{}

// NewSnapshot collects seq into a Snapshot.
// If a key appears more than once, the last record for it is kept.
func NewSnapshot(seq iter.Seq2[PublicKey, PeerRecord]) *Snapshot {
	peers := map[PublicKey]PeerRecord{}
	if seq != nil {
		for k, rec := range seq {
			peers[k] = rec.clone()
		}
	}
	return &Snapshot{peers: peers}
}

func (s *Snapshot) Len() int {
	return len(s.peers)
}

func (s *Snapshot) Contains(k PublicKey) bool {
	_, exists := s.peers[k]
	return exists
}

// Get returns a copy of the record for k.
func (s *Snapshot) Get(k PublicKey) (PeerRecord, bool) {
	rec, exists := s.peers[k]
	if !exists {
		return PeerRecord{}, false
	}
	return rec.clone(), true
}

// All iterates over the snapshot in no particular order.
func (s *Snapshot) All() iter.Seq2[PublicKey, PeerRecord] {
	return func(yield func(PublicKey, PeerRecord) bool) {
		for k, rec := range s.peers {
			if !yield(k, rec.clone()) {
				return
			}
		}
	}
}

// Keys iterates over the public keys in the snapshot.
func (s *Snapshot) Keys() iter.Seq[PublicKey] {
	return maps.Keys(s.peers)
}

// List returns every record sorted by name, then by public key.
func (s *Snapshot) List() []PeerRecord {
	ret := make([]PeerRecord, 0, len(s.peers))
	for _, rec := range s.All() {
		ret = append(ret, rec)
	}
	slices.SortFunc(ret, func(a, b PeerRecord) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return slices.Compare(a.PublicKey[:], b.PublicKey[:])
	})
	return ret
}
