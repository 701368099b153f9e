package trustset

import (
	"sync/atomic"
)

// Allower decides whether a peer presenting key may connect.
// It is the only thing a TLS verifier needs from this package.
type Allower interface {
	Allowed(key PublicKey) bool
}

// Lookup returns what is known about a trusted peer.
type Lookup interface {
	Lookup(key PublicKey) (PeerRecord, bool)
}

// AllowFunc adapts a function to an Allower
type AllowFunc func(PublicKey) bool

func (f AllowFunc) Allowed(key PublicKey) bool {
	return f(key)
}

// Static is a fixed set of allowed keys.
type Static map[PublicKey]struct{}

func NewStatic(keys ...PublicKey) Static {
	s := make(Static, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s Static) Allowed(key PublicKey) bool {
	_, ok := s[key]
	return ok
}

var (
	_ Allower = &Store{}
	_ Lookup  = &Store{}
)

// Store holds the current trust set.
//
// Readers load the current Snapshot with a single atomic operation and never block.
// The single writer installs whole snapshots with Replace, so readers observe either
// the previous snapshot or the next one, and never anything in between.
// The zero value is an empty Store ready to use.
type Store struct {
	current atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{}
}

// Current returns the snapshot installed most recently.
func (s *Store) Current() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return emptySnapshot
}

// Allowed implements Allower
func (s *Store) Allowed(key PublicKey) bool {
	return s.Current().Contains(key)
}

// Lookup implements Lookup
func (s *Store) Lookup(key PublicKey) (PeerRecord, bool) {
	return s.Current().Get(key)
}

func (s *Store) Len() int {
	return s.Current().Len()
}

// Replace installs next as the current snapshot and returns the one it replaced.
func (s *Store) Replace(next *Snapshot) *Snapshot {
	if next == nil {
		panic("trustset: Replace called with nil snapshot")
	}
	if prev := s.current.Swap(next); prev != nil {
		return prev
	}
	return emptySnapshot
}
