package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/alerts"
	"github.com/dgnsrekt/risk-monitor/internal/greeks"
	"github.com/dgnsrekt/risk-monitor/internal/portfolio"
	"github.com/dgnsrekt/risk-monitor/internal/position"
	"github.com/dgnsrekt/risk-monitor/internal/risk"
)

// MarketData is what a pass needs from the market-data collaborator beyond
// the Greeks provider wired into the cache.
type MarketData interface {
	UnderlyingPrice(ctx context.Context, symbol string) (float64, error)
	NextExDividend(ctx context.Context, symbol string) (time.Time, error)
}

// Options tune the monitor loop.
type Options struct {
	Interval    time.Duration
	Workers     int
	AutoHedge   bool
	CallTimeout time.Duration
}

// Summary is the counts-by-level view of the book.
type Summary struct {
	Monitoring bool           `json:"monitoring"`
	Positions  int            `json:"positions"`
	ByLevel    map[string]int `json:"by_level"`
	LastPass   time.Time      `json:"last_pass,omitzero"`
}

// Engine drives periodic risk passes over the position store and owns the
// last computed portfolio aggregate. It is the single facade the surrounding
// framework consumes.
type Engine struct {
	store      *position.Store
	cache      *greeks.Cache
	aggregator *portfolio.Aggregator
	dispatcher *alerts.Dispatcher
	market     MarketData
	thresholds risk.Thresholds
	opts       Options
	logger     *zap.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	loopDone chan struct{}

	pmu           sync.RWMutex
	lastPortfolio portfolio.PortfolioGreeks
	havePortfolio bool
	lastPass      time.Time
}

func NewEngine(
	store *position.Store,
	cache *greeks.Cache,
	aggregator *portfolio.Aggregator,
	dispatcher *alerts.Dispatcher,
	market MarketData,
	thresholds risk.Thresholds,
	opts Options,
	logger *zap.Logger,
) *Engine {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 5 * time.Second
	}

	return &Engine{
		store:      store,
		cache:      cache,
		aggregator: aggregator,
		dispatcher: dispatcher,
		market:     market,
		thresholds: thresholds,
		opts:       opts,
		logger:     logger,
	}
}

// AddPosition registers a position for monitoring and returns the stored
// copy with its derived id.
func (e *Engine) AddPosition(p position.Position) (position.Position, error) {
	return e.store.Add(p)
}

// RemovePosition stops monitoring a position.
func (e *Engine) RemovePosition(id string) error {
	return e.store.Remove(id)
}

// Position returns a copy of one monitored position.
func (e *Engine) Position(id string) (position.Position, bool) {
	return e.store.Get(id)
}

// Positions returns copies of all monitored positions.
func (e *Engine) Positions() []position.Position {
	return e.store.List()
}

// Dispatcher exposes the subscription surface.
func (e *Engine) Dispatcher() *alerts.Dispatcher {
	return e.dispatcher
}

// IsRunning reports whether the recurring loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// RiskSummary returns counts of positions by their cached risk level.
func (e *Engine) RiskSummary() Summary {
	e.pmu.RLock()
	lastPass := e.lastPass
	e.pmu.RUnlock()

	return Summary{
		Monitoring: e.IsRunning(),
		Positions:  e.store.Len(),
		ByLevel:    e.store.CountByLevel(),
		LastPass:   lastPass,
	}
}

// PortfolioGreeks returns the last computed aggregate, computing one
// synchronously if no pass has run yet.
func (e *Engine) PortfolioGreeks(ctx context.Context) portfolio.PortfolioGreeks {
	e.pmu.RLock()
	have := e.havePortfolio
	last := e.lastPortfolio
	e.pmu.RUnlock()

	if have {
		return last
	}
	return e.refreshPortfolio(ctx)
}

// Start runs one immediate pass, then schedules recurring passes. Calling
// Start on a running engine is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	done := make(chan struct{})
	e.loopDone = done
	e.mu.Unlock()

	e.logger.Info("monitoring started",
		zap.Duration("interval", e.opts.Interval),
		zap.Int("workers", e.opts.Workers),
	)
	e.dispatcher.PublishLifecycle(alerts.EventMonitoringStarted)

	go e.runLoop(ctx, done)
}

// Stop cancels the recurring schedule. An in-flight pass finishes; no new
// pass starts. Safe to call on a stopped engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()

	e.logger.Info("monitoring stopped")
	e.dispatcher.PublishLifecycle(alerts.EventMonitoringStopped)
}

// Wait blocks until the loop goroutine has exited. Used during shutdown.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.loopDone
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (e *Engine) runLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	// Passes run against the background context so a stop lets the pass in
	// flight complete; per-call timeouts still bound every fetch.
	e.RunPass(context.Background())

	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunPass(context.Background())
		}
	}
}
