// Package trustd runs the trust set refresher and the servers which depend on it.
package trustd

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.brendoncarroll.net/stdctx/logctx"
	"golang.org/x/sync/errgroup"

	"go.inet256.org/trustd/pkg/trustset"
)

type TLSParams struct {
	Addr        string
	Certificate tls.Certificate
}

type Params struct {
	Fetcher trustset.Fetcher
	Period  time.Duration
	APIAddr string
	// TLS is optional
	TLS *TLSParams
}

type Daemon struct {
	params  Params
	store   *trustset.Store
	reg     *prometheus.Registry
	metrics *trustset.Metrics
}

func New(p Params) *Daemon {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Daemon{
		params:  p,
		store:   trustset.NewStore(),
		reg:     reg,
		metrics: trustset.NewMetrics(reg),
	}
}

// Store returns the trust set maintained by the daemon.
func (d *Daemon) Store() *trustset.Store {
	return d.store
}

// Run blocks until ctx is cancelled or one of the daemon's services fails.
func (d *Daemon) Run(ctx context.Context) error {
	r := &trustset.Refresher{
		Fetcher: d.params.Fetcher,
		Store:   d.store,
		Period:  d.params.Period,
		Metrics: d.metrics,
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return r.Run(ctx)
	})
	eg.Go(func() error {
		return d.runHTTPServer(ctx, d.params.APIAddr)
	})
	if d.params.TLS != nil {
		eg.Go(func() error {
			return d.runTLSServer(ctx, *d.params.TLS)
		})
	}
	err := eg.Wait()
	logctx.Infof(ctx, "daemon stopped: %v", err)
	return err
}
