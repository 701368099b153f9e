// Package valregistry fetches the active validator set from a JSON-RPC full node.
package valregistry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const (
	// MethodLatestSystemState is the only method the client calls.
	MethodLatestSystemState = "sui_getLatestSuiSystemState"
	// DefaultTimeout bounds a whole request, including reading the body.
	DefaultTimeout = 10 * time.Second

	maxResponseSize = 64 << 20
)

type Option func(*Client)

// WithHTTPClient replaces the http.Client used for requests.
// The timeout configured on hc is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithTimeout sets the timeout for a single fetch.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Client requests the validator set summary from a registry endpoint.
// It does not retry.
type Client struct {
	endpoint string
	timeout  time.Duration
	hc       *http.Client
}

func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: c.timeout}
	}
	return c
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Fetch sends a single JSON-RPC request and decodes the result.
func (c *Client) Fetch(ctx context.Context) (*SystemStateSummary, error) {
	if c.timeout > 0 {
		var cf context.CancelFunc
		ctx, cf = context.WithTimeout(ctx, c.timeout)
		defer cf()
	}
	reqBody, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  MethodLatestSystemState,
		ID:      1,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, transportErr(errors.Wrap(err, "building request"))
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, transportErr(errors.Wrap(err, "unable to perform json rpc"))
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize+1))
	if err != nil {
		return nil, transportErr(errors.Wrap(err, "unable to read body from json rpc"))
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &FetchError{
			Kind:       KindStatus,
			StatusCode: res.StatusCode,
			Err:        errors.Errorf("json rpc responded with %s", res.Status),
		}
	}
	if len(body) > maxResponseSize {
		return nil, decodeErr(KindMalformed, errors.Errorf("response exceeds %d bytes", maxResponseSize))
	}
	return ParseResponse(body)
}
