package valregistry

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"
)

// SystemStateSummary is the part of the registry's system state that describes
// the active validator set. Fields not listed here are ignored.
type SystemStateSummary struct {
	ActiveValidators []ValidatorSummary `json:"active_validators"`
}

// ValidatorSummary is a single validator as reported by the registry.
// Nothing in it has been validated.
type ValidatorSummary struct {
	Name               string `json:"name"`
	SuiAddress         string `json:"sui_address,omitempty"`
	NetworkPubkeyBytes Bytes  `json:"network_pubkey_bytes"`
	P2PAddress         string `json:"p2p_address"`
}

// Bytes is a byte string encoded as a JSON array of numbers.
// A base64 encoded JSON string is also accepted when decoding.
type Bytes []byte

func (b Bytes) MarshalJSON() ([]byte, error) {
	xs := make([]int, len(b))
	for i := range b {
		xs[i] = int(b[i])
	}
	return json.Marshal(xs)
}

func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*b = nil
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		out, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return errors.Wrap(err, "bytes: invalid base64")
		}
		*b = out
		return nil
	}
	var xs []int
	if err := json.Unmarshal(data, &xs); err != nil {
		return err
	}
	out := make([]byte, len(xs))
	for i, x := range xs {
		if x < 0 || x > 0xff {
			return errors.Errorf("bytes: value %d at index %d is out of range", x, i)
		}
		out[i] = byte(x)
	}
	*b = out
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	ID      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error,omitempty"`
}

// ParseResponse decodes a JSON-RPC response body into a SystemStateSummary.
// Errors are *FetchError with KindMalformed or KindSchema.
func ParseResponse(body []byte) (*SystemStateSummary, error) {
	if !json.Valid(body) {
		return nil, decodeErr(KindMalformed, errors.Errorf("response is not valid json (%d bytes)", len(body)))
	}
	var res rpcResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, decodeErr(KindSchema, errors.Wrap(err, "decoding response envelope"))
	}
	if res.Error != nil {
		return nil, decodeErr(KindSchema, errors.Errorf("rpc error %d: %s", res.Error.Code, res.Error.Message))
	}
	if len(res.Result) == 0 || bytes.Equal(res.Result, []byte("null")) {
		return nil, decodeErr(KindSchema, errors.New("response is missing result"))
	}
	var wire struct {
		ActiveValidators *[]ValidatorSummary `json:"active_validators"`
	}
	if err := json.Unmarshal(res.Result, &wire); err != nil {
		return nil, decodeErr(KindSchema, errors.Wrap(err, "decoding system state summary"))
	}
	if wire.ActiveValidators == nil {
		return nil, decodeErr(KindSchema, errors.New("system state summary is missing active_validators"))
	}
	return &SystemStateSummary{ActiveValidators: *wire.ActiveValidators}, nil
}
