package monitor

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/alerts"
	"github.com/dgnsrekt/risk-monitor/internal/greeks"
	"github.com/dgnsrekt/risk-monitor/internal/portfolio"
	"github.com/dgnsrekt/risk-monitor/internal/position"
	"github.com/dgnsrekt/risk-monitor/internal/risk"
)

// RunPass assesses every monitored position once, updates the cached risk
// fields, dispatches elevated results, and refreshes the portfolio
// aggregate. The batch of elevated assessments is returned sorted by score,
// highest first. A pass never returns an error: missing data degrades per
// factor and a single position failure only skips that position.
func (e *Engine) RunPass(ctx context.Context) []risk.Assessment {
	start := time.Now()
	ids := e.store.IDs()

	if len(ids) == 0 {
		e.pmu.Lock()
		e.lastPass = start
		e.pmu.Unlock()
		return nil
	}

	workers := e.opts.Workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string, len(ids))
	results := make(chan risk.Assessment, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if a, ok := e.assessOne(ctx, id, start); ok {
					results <- a
				}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	wg.Wait()
	close(results)

	var batch []risk.Assessment
	assessed := 0
	for a := range results {
		assessed++
		if a.Level != risk.LevelLow {
			batch = append(batch, a)
		}
	}

	sort.Slice(batch, func(i, j int) bool { return batch[i].Score > batch[j].Score })

	for _, a := range batch {
		e.dispatcher.PublishPositionRisk(alerts.PositionRiskAlert{Assessment: a})
		if a.Level == risk.LevelCritical {
			e.dispatcher.PublishAutoClose(alerts.AutoCloseTriggered{
				PositionID: a.PositionID,
				Assessment: a,
			})
		}
	}

	pg := e.refreshPortfolio(ctx)
	e.checkPortfolioLimits(pg)

	e.pmu.Lock()
	e.lastPass = start
	e.pmu.Unlock()

	e.logger.Info("pass complete",
		zap.Int("positions", assessed),
		zap.Int("elevated", len(batch)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return batch
}

// assessOne scores a single position. Panics are contained here so one bad
// position cannot take down the batch.
func (e *Engine) assessOne(ctx context.Context, id string, now time.Time) (a risk.Assessment, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("assessment panicked, skipping position",
				zap.String("id", id),
				zap.Any("panic", r),
			)
			ok = false
		}
	}()

	p, found := e.store.Get(id)
	if !found {
		// Removed after the snapshot was taken.
		return risk.Assessment{}, false
	}

	mc := e.marketContext(ctx, p, now)
	a = risk.Assess(p, e.thresholds, mc)
	e.store.SetAssessment(id, string(a.Level), a.Score, now)

	return a, true
}

// marketContext gathers the upstream inputs for one position. Every fetch is
// bounded by the call timeout and failure just clears the corresponding Has
// flag.
func (e *Engine) marketContext(ctx context.Context, p position.Position, now time.Time) risk.Context {
	mc := risk.Context{Now: now}

	priceCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	price, err := e.market.UnderlyingPrice(priceCtx, p.Symbol)
	cancel()
	if err != nil {
		e.logger.Debug("underlying price unavailable",
			zap.String("symbol", p.Symbol),
			zap.Error(err),
		)
	} else {
		mc.UnderlyingPrice = price
		mc.HasPrice = true
	}

	// The dividend calendar only matters for short calls.
	if p.Side == position.Short && p.Type == position.Call {
		divCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
		exDate, err := e.market.NextExDividend(divCtx, p.Symbol)
		cancel()
		if err != nil {
			e.logger.Debug("dividend calendar unavailable",
				zap.String("symbol", p.Symbol),
				zap.Error(err),
			)
		} else if days := risk.DTE(exDate, now); days >= 0 {
			mc.DaysToExDividend = days
			mc.HasDividend = true
		}
	}

	return mc
}

// refreshPortfolio recomputes the aggregate from scratch and stores it as
// the last known value.
func (e *Engine) refreshPortfolio(ctx context.Context) portfolio.PortfolioGreeks {
	positions := e.store.List()

	refs := make([]greeks.ContractRef, 0, len(positions))
	for _, p := range positions {
		refs = append(refs, greeks.RefFor(p))
	}

	resolved := e.cache.Resolve(ctx, refs, e.spot)
	pg := e.aggregator.Aggregate(positions, resolved, time.Now())

	e.pmu.Lock()
	e.lastPortfolio = pg
	e.havePortfolio = true
	e.pmu.Unlock()

	return pg
}

func (e *Engine) spot(ctx context.Context, symbol string) (float64, bool) {
	callCtx, cancel := context.WithTimeout(ctx, e.opts.CallTimeout)
	defer cancel()

	price, err := e.market.UnderlyingPrice(callCtx, symbol)
	if err != nil {
		return 0, false
	}
	return price, true
}

func (e *Engine) checkPortfolioLimits(pg portfolio.PortfolioGreeks) {
	limits := e.aggregator.Limits()

	if !pg.DeltaNeutral {
		e.dispatcher.PublishPortfolioLimit(alerts.PortfolioLimitViolation{
			Limit:    "delta",
			Observed: math.Abs(pg.Delta),
			Bound:    limits.DeltaNeutralRange,
			Snapshot: pg,
		})
		if e.opts.AutoHedge {
			// Hedge with the underlying: one contract covers 100 deltas.
			contracts := int(math.Round(-pg.Delta / 100))
			if contracts != 0 {
				e.dispatcher.PublishAutoHedge(alerts.AutoHedgeTriggered{
					PortfolioDelta: pg.Delta,
					Contracts:      contracts,
				})
			}
		}
	}

	if pg.GammaRisk == portfolio.GammaHigh || pg.GammaRisk == portfolio.GammaExtreme {
		e.dispatcher.PublishPortfolioLimit(alerts.PortfolioLimitViolation{
			Limit:    "gamma",
			Observed: math.Abs(pg.Gamma),
			Bound:    limits.GammaRiskLimit,
			Snapshot: pg,
		})
	}

	if math.Abs(pg.Theta) > limits.ThetaDecayAlert {
		e.dispatcher.PublishPortfolioLimit(alerts.PortfolioLimitViolation{
			Limit:    "theta",
			Observed: math.Abs(pg.Theta),
			Bound:    limits.ThetaDecayAlert,
			Snapshot: pg,
		})
	}

	if math.Abs(pg.Vega) > limits.VegaExposureLimit {
		e.dispatcher.PublishPortfolioLimit(alerts.PortfolioLimitViolation{
			Limit:    "vega",
			Observed: math.Abs(pg.Vega),
			Bound:    limits.VegaExposureLimit,
			Snapshot: pg,
		})
	}
}
