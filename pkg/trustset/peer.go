package trustset

import (
	"encoding/hex"
	"encoding/json"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/multiformats/go-multiaddr"
	"github.com/pkg/errors"
)

// PublicKeySize is the size of an encoded PublicKey in bytes.
const PublicKeySize = ed25519.PublicKeySize

// PublicKey is an Ed25519 public key identifying a peer.
// It is comparable, and used directly as a map key.
type PublicKey [PublicKeySize]byte

// ParsePublicKey decodes the raw bytes of an Ed25519 public key.
// The bytes must be the encoding of a point on the curve.
func ParsePublicKey(data []byte) (PublicKey, error) {
	pub, err := ed25519.Scheme().UnmarshalBinaryPublicKey(data)
	if err != nil {
		return PublicKey{}, errors.Wrapf(err, "parsing ed25519 public key from %d bytes", len(data))
	}
	if _, err := new(edwards25519.Point).SetBytes(data); err != nil {
		return PublicKey{}, errors.Wrap(err, "parsing ed25519 public key")
	}
	var ret PublicKey
	copy(ret[:], pub.(ed25519.PublicKey))
	return ret, nil
}

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk[:])
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

func (pk *PublicKey) UnmarshalText(data []byte) error {
	raw, err := hex.DecodeString(string(data))
	if err != nil {
		return err
	}
	x, err := ParsePublicKey(raw)
	if err != nil {
		return err
	}
	*pk = x
	return nil
}

// PeerRecord is a trusted peer and where it can be reached.
type PeerRecord struct {
	Name       string
	P2PAddress multiaddr.Multiaddr
	PublicKey  PublicKey
}

// Equal returns true if every field of r and other are equal.
func (r PeerRecord) Equal(other PeerRecord) bool {
	return r.Name == other.Name &&
		r.PublicKey == other.PublicKey &&
		r.P2PAddress.Equal(other.P2PAddress)
}

func (r PeerRecord) clone() PeerRecord {
	r.P2PAddress = append(multiaddr.Multiaddr(nil), r.P2PAddress...)
	return r
}

type peerRecordJSON struct {
	Name       string    `json:"name"`
	P2PAddress string    `json:"p2p_address"`
	PublicKey  PublicKey `json:"public_key"`
}

func (r PeerRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(peerRecordJSON{
		Name:       r.Name,
		P2PAddress: r.P2PAddress.String(),
		PublicKey:  r.PublicKey,
	})
}

func (r *PeerRecord) UnmarshalJSON(data []byte) error {
	var x peerRecordJSON
	if err := json.Unmarshal(data, &x); err != nil {
		return err
	}
	addr, err := ParseAddr(x.P2PAddress)
	if err != nil {
		return err
	}
	*r = PeerRecord{Name: x.Name, P2PAddress: addr, PublicKey: x.PublicKey}
	return nil
}

// ParseAddr parses a non-empty multiaddr.
func ParseAddr(s string) (multiaddr.Multiaddr, error) {
	if s == "" {
		return nil, errors.New("empty multiaddr")
	}
	addr, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		return nil, err
	}
	if len(addr) == 0 {
		return nil, errors.Errorf("multiaddr %q has no components", s)
	}
	return addr, nil
}
