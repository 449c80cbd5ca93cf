package portfolio

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/risk-monitor/internal/greeks"
	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// GammaRisk is the banded classification of absolute portfolio gamma.
type GammaRisk string

const (
	GammaLow     GammaRisk = "LOW"
	GammaMedium  GammaRisk = "MEDIUM"
	GammaHigh    GammaRisk = "HIGH"
	GammaExtreme GammaRisk = "EXTREME"
)

// Greeks holds summed exposure values.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

func (g *Greeks) add(s greeks.Snapshot, scale float64) {
	g.Delta += s.Delta * scale
	g.Gamma += s.Gamma * scale
	g.Theta += s.Theta * scale
	g.Vega += s.Vega * scale
	g.Rho += s.Rho * scale
}

// PortfolioGreeks is the full aggregate: totals, derived risk categories, and
// per-group subtotals. It is a pure function of the position set and the
// resolved Greeks, recomputed wholesale on every call.
type PortfolioGreeks struct {
	Greeks
	DeltaNeutral      bool              `json:"delta_neutral"`
	GammaRisk         GammaRisk         `json:"gamma_risk"`
	RiskScore         float64           `json:"risk_score"`
	CorrelationGroups map[string]Greeks `json:"correlation_groups,omitempty"`
	Strategies        map[string]Greeks `json:"strategies,omitempty"`
	PositionCount     int               `json:"position_count"`
	ComputedAt        time.Time         `json:"computed_at"`
}

// Limits are the configured portfolio exposure bounds.
type Limits struct {
	DeltaNeutralRange float64
	GammaRiskLimit    float64
	ThetaDecayAlert   float64
	VegaExposureLimit float64
}

type Aggregator struct {
	limits Limits
	logger *zap.Logger
}

func NewAggregator(limits Limits, logger *zap.Logger) *Aggregator {
	return &Aggregator{limits: limits, logger: logger}
}

// Limits returns the configured bounds.
func (a *Aggregator) Limits() Limits {
	return a.limits
}

// Aggregate folds per-contract Greeks into portfolio totals plus
// correlation-group and strategy subtotals. Positions whose Greeks cannot be
// resolved are skipped and counted in the log line; everything else still
// aggregates.
func (a *Aggregator) Aggregate(positions []position.Position, resolved map[greeks.Key]greeks.Snapshot, now time.Time) PortfolioGreeks {
	pg := PortfolioGreeks{
		CorrelationGroups: make(map[string]Greeks),
		Strategies:        make(map[string]Greeks),
		ComputedAt:        now,
	}

	skipped := 0
	for _, p := range positions {
		snap, ok := resolved[greeks.RefFor(p).Key()]
		if !ok {
			skipped++
			continue
		}

		scale := float64(p.SignedQuantity() * p.Multiplier)
		pg.Greeks.add(snap, scale)
		pg.PositionCount++

		if p.CorrelationGroup != "" {
			sub := pg.CorrelationGroups[p.CorrelationGroup]
			sub.add(snap, scale)
			pg.CorrelationGroups[p.CorrelationGroup] = sub
		}
		if p.Strategy != "" {
			sub := pg.Strategies[p.Strategy]
			sub.add(snap, scale)
			pg.Strategies[p.Strategy] = sub
		}
	}

	if skipped > 0 {
		a.logger.Warn("positions skipped in aggregation", zap.Int("skipped", skipped))
	}

	pg.DeltaNeutral = math.Abs(pg.Delta) <= a.limits.DeltaNeutralRange
	pg.GammaRisk = a.classifyGamma(math.Abs(pg.Gamma))
	pg.RiskScore = a.riskScore(pg.Greeks)

	return pg
}

func (a *Aggregator) classifyGamma(absGamma float64) GammaRisk {
	switch {
	case absGamma < 0.5*a.limits.GammaRiskLimit:
		return GammaLow
	case absGamma < a.limits.GammaRiskLimit:
		return GammaMedium
	case absGamma < 2*a.limits.GammaRiskLimit:
		return GammaHigh
	default:
		return GammaExtreme
	}
}

// riskScore maps normalized exposure against the configured limits onto
// 0-100. Each input is capped at its limit before weighting, so the score is
// monotonically non-decreasing in every exposure and saturates at 100.
func (a *Aggregator) riskScore(g Greeks) float64 {
	norm := func(v, limit float64) float64 {
		n := math.Abs(v) / limit
		if n > 1 {
			return 1
		}
		return n
	}

	score := 100 * (0.35*norm(g.Delta, a.limits.DeltaNeutralRange) +
		0.25*norm(g.Gamma, a.limits.GammaRiskLimit) +
		0.20*norm(g.Theta, a.limits.ThetaDecayAlert) +
		0.20*norm(g.Vega, a.limits.VegaExposureLimit))

	if score > 100 {
		return 100
	}
	return score
}
