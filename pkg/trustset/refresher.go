package trustset

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.brendoncarroll.net/stdctx/logctx"

	"go.inet256.org/trustd/pkg/valregistry"
)

// Fetcher retrieves the current validator set.
// *valregistry.Client implements Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context) (*valregistry.SystemStateSummary, error)
}

// FetchFunc adapts a function to a Fetcher
type FetchFunc func(ctx context.Context) (*valregistry.SystemStateSummary, error)

func (f FetchFunc) Fetch(ctx context.Context) (*valregistry.SystemStateSummary, error) {
	return f(ctx)
}

var _ Fetcher = &valregistry.Client{}

// Refresher keeps a Store up to date with the registry.
//
// It is the only writer to Store. A failed refresh leaves the Store as it was,
// and is tried again on the next tick.
type Refresher struct {
	Fetcher Fetcher
	Store   *Store
	Period  time.Duration
	// Metrics is optional
	Metrics *Metrics

	// ticks replaces the ticker when set
	ticks <-chan time.Time
}

// Run refreshes immediately and then once every Period until ctx is cancelled.
// Ticks which elapse while a refresh is in progress are skipped, not queued.
// Run always returns a non-nil error.
func (r *Refresher) Run(ctx context.Context) error {
	if r.Period <= 0 && r.ticks == nil {
		return errors.Errorf("refresher: period must be positive, have %v", r.Period)
	}
	ticks := r.ticks
	if ticks == nil {
		ticker := time.NewTicker(r.Period)
		defer ticker.Stop()
		ticks = ticker.C
	}
	logctx.Infof(ctx, "started polling for peers every %v", r.Period)
	for {
		if err := r.RefreshOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logctx.Errorf(ctx, "unable to refresh peer list: %v", err)
		}
		if err := waitTick(ctx, ticks, time.Now()); err != nil {
			return err
		}
	}
}

// RefreshOnce fetches the validator set, extracts a new snapshot from it and installs it.
// If fetching fails the Store is not touched.
func (r *Refresher) RefreshOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	summary, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		// cancellation is a shutdown, not a registry failure
		if ctx.Err() == nil {
			r.Metrics.observeFailure(err)
		}
		return errors.Wrap(err, "fetching validator set")
	}
	snap, stats := Collect(ctx, summary)
	r.Store.Replace(snap)
	logctx.Infof(ctx, "%d peers managed to make it on the allow list, %d dropped", snap.Len(), stats.TotalDropped())
	r.Metrics.observeSuccess(time.Now(), snap.Len(), stats)
	return nil
}

// waitTick blocks until a tick which fired after since.
// Ticks from before since were missed while a refresh was running, and are dropped.
func waitTick(ctx context.Context, ticks <-chan time.Time, since time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticks:
			if t.Before(since) {
				continue
			}
			return nil
		}
	}
}
