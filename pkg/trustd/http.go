package trustd

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.brendoncarroll.net/stdctx/logctx"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.inet256.org/trustd/pkg/peerauth"
	"go.inet256.org/trustd/pkg/trustset"
)

// runHTTPServer starts a listener at endpoint, and serves the admin API until ctx is done.
func (d *Daemon) runHTTPServer(ctx context.Context, endpoint string) error {
	l, err := net.Listen("tcp", endpoint)
	if err != nil {
		return err
	}
	defer l.Close()
	logctx.Infof(ctx, "API listening on: %v", l.Addr())
	handler := h2c.NewHandler(newAdminHandler(d.store, d.reg), &http2.Server{})
	return serve(ctx, l, handler)
}

// runTLSServer serves endpoints which require a client certificate from the trust set.
func (d *Daemon) runTLSServer(ctx context.Context, p TLSParams) error {
	l, err := net.Listen("tcp", p.Addr)
	if err != nil {
		return err
	}
	defer l.Close()
	logctx.Infof(ctx, "peer API listening on: %v", l.Addr())
	tl := tls.NewListener(l, peerauth.ServerConfig(p.Certificate, d.store))
	return serve(ctx, tl, newPeerHandler(d.store))
}

func serve(ctx context.Context, l net.Listener, h http.Handler) error {
	hSrv := http.Server{
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- hSrv.Serve(l)
	}()
	select {
	case <-ctx.Done():
		if err := hSrv.Shutdown(context.Background()); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func newAdminHandler(store *trustset.Store, gatherer prometheus.Gatherer) http.Handler {
	mux := chi.NewMux()
	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("trustd\n"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Get("/peers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, store.Current().List())
	})
	mux.Get("/peers/{key}", func(w http.ResponseWriter, r *http.Request) {
		var key trustset.PublicKey
		if err := key.UnmarshalText([]byte(chi.URLParam(r, "key"))); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec, ok := store.Lookup(key)
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, rec)
	})
	return mux
}

func newPeerHandler(store *trustset.Store) http.Handler {
	mux := chi.NewMux()
	mux.Use(peerauth.Middleware(store))
	mux.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		rec, _ := peerauth.PeerFromContext(r.Context())
		writeJSON(w, rec)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, x any) {
	data, err := json.Marshal(x)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
