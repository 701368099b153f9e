package valregistry

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind int

const (
	// KindTransport is a connection, timeout or read failure.
	KindTransport ErrorKind = iota + 1
	// KindStatus is a non-2xx HTTP response.
	KindStatus
	// KindMalformed is a response body which is not JSON.
	KindMalformed
	// KindSchema is JSON which does not have the expected shape.
	KindSchema
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindSchema:
		return "schema"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// FetchError is returned by Client.Fetch for every failure.
type FetchError struct {
	Kind ErrorKind
	// StatusCode is set for KindStatus
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("valregistry: %v error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the FetchError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return 0, false
	}
	return fe.Kind, true
}

// IsTransport returns true if err was caused by the network or a bad status code.
func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindTransport || k == KindStatus)
}

// IsDecode returns true if err was caused by a response body that could not be decoded.
func IsDecode(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindMalformed || k == KindSchema)
}

func transportErr(err error) error {
	return &FetchError{Kind: KindTransport, Err: err}
}

func decodeErr(kind ErrorKind, err error) error {
	return &FetchError{Kind: kind, Err: err}
}
