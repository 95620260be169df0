// Package poller refreshes the dashboard store from the backend on a fixed
// interval. Each cycle issues three independent fetches; a failure only
// affects its own collection, which keeps its last value.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"smartbin-dashboard/internal/modules/dashboard/store"
	"smartbin-dashboard/internal/modules/dashboard/types"
)

type Fetcher interface {
	FetchReadings(ctx context.Context) ([]types.Reading, error)
	FetchReports(ctx context.Context) ([]types.Report, error)
	FetchAlerts(ctx context.Context) ([]types.Alert, error)
}

// Recorder receives the outcome of every fetch that was not superseded.
type Recorder interface {
	InsertFetch(ctx context.Context, rec types.FetchRecord) error
}

// AlertPublisher is handed each alerts snapshot that reaches the store.
type AlertPublisher interface {
	PublishAlerts(alerts []types.Alert) error
}

// TickFunc returns a channel firing every d and a stop function.
type TickFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Poller struct {
	fetcher   Fetcher
	store     *store.Store
	recorder  Recorder
	publisher AlertPublisher
	interval  time.Duration
	logger    *slog.Logger

	tick TickFunc
	now  func() time.Time

	inflight sync.WaitGroup
}

type Option func(*Poller)

// WithRecorder logs each fetch outcome.
func WithRecorder(r Recorder) Option {
	return func(p *Poller) { p.recorder = r }
}

// WithAlertPublisher relays every fresh alerts snapshot.
func WithAlertPublisher(pub AlertPublisher) Option {
	return func(p *Poller) { p.publisher = pub }
}

// WithTicker replaces the interval ticker; tests use it to drive cycles.
func WithTicker(tick TickFunc) Option {
	return func(p *Poller) { p.tick = tick }
}

func New(fetcher Fetcher, st *store.Store, interval time.Duration, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		fetcher:  fetcher,
		store:    st,
		interval: interval,
		logger:   logger.With("component", "poller"),
		tick:     realTicker,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one cycle immediately, then one per interval until ctx is
// done. On return the epoch has been invalidated, so responses still in
// flight are discarded, and all fetch goroutines have finished.
func (p *Poller) Run(ctx context.Context) error {
	epoch := p.store.Begin()
	p.logger.Info("polling started", "interval", p.interval, "epoch", epoch)

	ticks, stop := p.tick(p.interval)
	defer stop()

	p.cycle(ctx, epoch)
	for {
		select {
		case <-ctx.Done():
			p.store.Invalidate()
			p.inflight.Wait()
			p.logger.Info("polling stopped", "epoch", epoch)
			return ctx.Err()
		case <-ticks:
			p.cycle(ctx, epoch)
		}
	}
}

// cycle launches the three fetches without waiting for them.
func (p *Poller) cycle(ctx context.Context, epoch uint64) {
	p.logger.Debug("poll cycle", "epoch", epoch)
	p.inflight.Add(3)
	go func() {
		defer p.inflight.Done()
		fetchInto(ctx, p, epoch, types.ResourceReadings, p.fetcher.FetchReadings, p.store.ReplaceReadings, nil)
	}()
	go func() {
		defer p.inflight.Done()
		fetchInto(ctx, p, epoch, types.ResourceReports, p.fetcher.FetchReports, p.store.ReplaceReports, nil)
	}()
	go func() {
		defer p.inflight.Done()
		fetchInto(ctx, p, epoch, types.ResourceAlerts, p.fetcher.FetchAlerts, p.store.ReplaceAlerts, p.publishAlerts)
	}()
}

func fetchInto[T any](
	ctx context.Context,
	p *Poller,
	epoch uint64,
	resource types.Resource,
	fetch func(context.Context) ([]T, error),
	replace func(uint64, []T) bool,
	onApplied func([]T),
) {
	start := p.now()
	items, err := fetch(ctx)
	elapsed := p.now().Sub(start)

	if err != nil {
		if ctx.Err() != nil || p.store.Epoch() != epoch {
			p.logger.Debug("discarding superseded fetch error", "resource", resource, "epoch", epoch, "error", err)
			return
		}
		p.logger.Warn("fetch failed", "resource", resource, "epoch", epoch, "error", err)
		p.record(ctx, types.FetchRecord{
			Resource:   resource,
			Epoch:      epoch,
			OK:         false,
			Error:      err.Error(),
			DurationMs: elapsed.Milliseconds(),
			FetchedAt:  p.now(),
		})
		return
	}

	if !replace(epoch, items) {
		p.logger.Debug("discarding superseded response", "resource", resource, "epoch", epoch, "items", len(items))
		return
	}
	p.logger.Debug("fetch ok", "resource", resource, "epoch", epoch, "items", len(items), "duration_ms", elapsed.Milliseconds())
	p.record(ctx, types.FetchRecord{
		Resource:   resource,
		Epoch:      epoch,
		OK:         true,
		ItemCount:  len(items),
		DurationMs: elapsed.Milliseconds(),
		FetchedAt:  p.now(),
	})
	if onApplied != nil {
		onApplied(items)
	}
}

func (p *Poller) record(ctx context.Context, rec types.FetchRecord) {
	if p.recorder == nil {
		return
	}
	// Recording is detached from poll cancellation.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.recorder.InsertFetch(rctx, rec); err != nil {
		p.logger.Warn("record fetch failed", "resource", rec.Resource, "error", err)
	}
}

func (p *Poller) publishAlerts(alerts []types.Alert) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishAlerts(alerts); err != nil {
		p.logger.Warn("publish alerts failed", "count", len(alerts), "error", err)
	}
}
