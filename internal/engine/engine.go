// Package engine orchestrates schedule resolution, manifest versioning and
// player synchronization for every screen.
package engine

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Nixie-Tech-LLC/playout/internal/db"
	"github.com/Nixie-Tech-LLC/playout/internal/health"
	"github.com/Nixie-Tech-LLC/playout/internal/ledger"
	"github.com/Nixie-Tech-LLC/playout/internal/lock"
	"github.com/Nixie-Tech-LLC/playout/internal/metrics"
	"github.com/Nixie-Tech-LLC/playout/internal/model"
	"github.com/Nixie-Tech-LLC/playout/internal/notify"
	"github.com/Nixie-Tech-LLC/playout/internal/reconcile"
	"github.com/Nixie-Tech-LLC/playout/internal/schedule"
)

type Options struct {
	Location           *time.Location
	HorizonDays        int
	Concurrency        int
	LockTimeout        time.Duration
	HeartbeatFreshness time.Duration
	ScreenCacheSize    int
	ScreenCacheTTL     time.Duration
	Now                func() time.Time
}

func (o *Options) defaults() {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.HorizonDays <= 0 {
		o.HorizonDays = 7
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 8
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 10 * time.Second
	}
	if o.ScreenCacheSize <= 0 {
		o.ScreenCacheSize = 1024
	}
	if o.ScreenCacheTTL <= 0 {
		o.ScreenCacheTTL = 30 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

type Engine struct {
	store      db.Store
	locker     lock.Locker
	notifier   notify.Notifier
	ledger     *ledger.Ledger
	reconciler *reconcile.Reconciler
	monitor    *health.Monitor
	screens    *expirable.LRU[string, model.Screen]
	opts       Options
}

func New(store db.Store, locker lock.Locker, notifier notify.Notifier, opts Options) *Engine {
	opts.defaults()
	if notifier == nil {
		notifier = notify.Nop{}
	}
	l := ledger.New(store, ledger.WithClock(opts.Now))
	return &Engine{
		store:      store,
		locker:     locker,
		notifier:   notifier,
		ledger:     l,
		reconciler: reconcile.New(store, l, locker, opts.Now),
		monitor:    health.NewMonitor(store, opts.HeartbeatFreshness, opts.Now),
		screens:    expirable.NewLRU[string, model.Screen](opts.ScreenCacheSize, nil, opts.ScreenCacheTTL),
		opts:       opts,
	}
}

// Horizon is the window manifests are resolved over at the current instant.
func (e *Engine) Horizon() schedule.Horizon {
	return schedule.NewHorizon(e.opts.Now(), e.opts.Location, e.opts.HorizonDays)
}

// withScreenLock runs fn in the screen's exclusive recompute scope.
func (e *Engine) withScreenLock(ctx context.Context, screenID string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.LockTimeout)
	defer cancel()
	return e.locker.WithLock(ctx, "screen:"+screenID, fn)
}

func (e *Engine) screenByCode(ctx context.Context, code string) (model.Screen, error) {
	if s, ok := e.screens.Get(code); ok {
		metrics.ScreenCacheHitsTotal.Inc()
		return s, nil
	}
	metrics.ScreenCacheMissesTotal.Inc()
	s, err := e.store.GetScreenByCode(ctx, code)
	if err != nil {
		return model.Screen{}, err
	}
	e.screens.Add(code, s)
	return s, nil
}
