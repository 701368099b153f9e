package peerauth

import (
	"context"
	"net/http"

	"go.brendoncarroll.net/stdctx/logctx"

	"go.inet256.org/trustd/pkg/trustset"
)

type peerKey struct{}

// NewContext returns a context carrying rec.
func NewContext(ctx context.Context, rec trustset.PeerRecord) context.Context {
	return context.WithValue(ctx, peerKey{}, rec)
}

// PeerFromContext returns the peer attached by Middleware.
func PeerFromContext(ctx context.Context) (trustset.PeerRecord, bool) {
	rec, ok := ctx.Value(peerKey{}).(trustset.PeerRecord)
	return rec, ok
}

// Middleware attaches the PeerRecord for the client certificate's key to the request context.
// Requests without a client certificate get 401, requests from unknown keys get 403.
func Middleware(lookup trustset.Lookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
				http.Error(w, ErrNoCertificate.Error(), http.StatusUnauthorized)
				return
			}
			key, err := PublicKeyFromCert(r.TLS.PeerCertificates[0])
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			rec, ok := lookup.Lookup(key)
			if !ok {
				logctx.Warnf(r.Context(), "rejecting request from unknown peer %v", key)
				http.Error(w, ErrNotAllowed{Key: key}.Error(), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), rec)))
		})
	}
}
