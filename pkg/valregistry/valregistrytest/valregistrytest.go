// Package valregistrytest provides a fake validator registry and deterministic fixtures.
package valregistrytest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/stretchr/testify/require"
	"go.brendoncarroll.net/stdctx/logctx"
	"go.uber.org/zap"

	"go.inet256.org/trustd/pkg/valregistry"
)

func Context(t testing.TB) context.Context {
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	ctx := context.Background()
	ctx = logctx.NewContext(ctx, l)
	return ctx
}

// NewPrivateKey returns an Ed25519 private key which is always the same for a given i.
func NewPrivateKey(t testing.TB, i int) ed25519.PrivateKey {
	rng := mrand.New(mrand.NewSource(int64(i)))
	_, priv, err := ed25519.GenerateKey(rng)
	require.NoError(t, err)
	return priv
}

// NewPublicKey returns the public half of NewPrivateKey(t, i)
func NewPublicKey(t testing.TB, i int) ed25519.PublicKey {
	return NewPrivateKey(t, i).Public().(ed25519.PublicKey)
}

// NewValidator returns a well formed validator with a key derived from i.
func NewValidator(t testing.TB, i int) valregistry.ValidatorSummary {
	return valregistry.ValidatorSummary{
		Name:               fmt.Sprintf("validator-%d", i),
		SuiAddress:         fmt.Sprintf("0x%064x", i),
		NetworkPubkeyBytes: valregistry.Bytes(NewPublicKey(t, i)),
		P2PAddress:         fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 8000+i),
	}
}

// Server is an HTTP server which answers registry requests.
// The zero state answers with an empty validator set.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	body     []byte
	status   int
	down     bool
	requests [][]byte
	headers  []http.Header
}

func NewServer(t testing.TB) *Server {
	s := &Server{}
	s.SetValidators()
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// SetValidators makes the server answer with a summary containing vals.
func (s *Server) SetValidators(vals ...valregistry.ValidatorSummary) {
	if vals == nil {
		vals = []valregistry.ValidatorSummary{}
	}
	res := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"result": map[string]any{
			"epoch":             "1",
			"active_validators": vals,
		},
	}
	data, err := json.Marshal(res)
	if err != nil {
		panic(err)
	}
	s.SetRaw(http.StatusOK, string(data))
}

// SetRaw makes the server answer every request with status and body.
func (s *Server) SetRaw(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.body = []byte(body)
}

// SetDown causes the server to drop connections without responding.
func (s *Server) SetDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

// Requests returns the bodies of all requests received so far.
func (s *Server) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte{}, s.requests...)
}

// Headers returns the headers of all requests received so far.
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header{}, s.headers...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, data)
	s.headers = append(s.headers, r.Header.Clone())
	down, status, body := s.down, s.status, s.body
	s.mu.Unlock()

	if down {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("response writer cannot be hijacked")
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
