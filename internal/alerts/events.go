package alerts

import (
	"time"

	"github.com/dgnsrekt/risk-monitor/internal/portfolio"
	"github.com/dgnsrekt/risk-monitor/internal/risk"
)

// EventKind names a notification channel.
type EventKind string

const (
	EventPositionRisk      EventKind = "position_risk"
	EventPortfolioLimit    EventKind = "portfolio_limit"
	EventAutoClose         EventKind = "auto_close"
	EventAutoHedge         EventKind = "auto_hedge"
	EventMonitoringStarted EventKind = "monitoring_started"
	EventMonitoringStopped EventKind = "monitoring_stopped"
)

// Kinds lists every event kind, for bulk subscription.
func Kinds() []EventKind {
	return []EventKind{
		EventPositionRisk,
		EventPortfolioLimit,
		EventAutoClose,
		EventAutoHedge,
		EventMonitoringStarted,
		EventMonitoringStopped,
	}
}

// PositionRiskAlert carries one elevated per-position assessment.
type PositionRiskAlert struct {
	Assessment risk.Assessment `json:"assessment"`
}

// PortfolioLimitViolation reports a breached portfolio exposure bound.
type PortfolioLimitViolation struct {
	Limit    string                    `json:"limit"`
	Observed float64                   `json:"observed"`
	Bound    float64                   `json:"bound"`
	Snapshot portfolio.PortfolioGreeks `json:"snapshot"`
}

// AutoCloseTriggered fires when a position's composite level reaches
// CRITICAL.
type AutoCloseTriggered struct {
	PositionID string          `json:"position_id"`
	Assessment risk.Assessment `json:"assessment"`
}

// AutoHedgeTriggered fires when delta drifts outside the neutral band and
// hedging is enabled. Contracts is the signed underlying quantity that would
// flatten the book.
type AutoHedgeTriggered struct {
	PortfolioDelta float64 `json:"portfolio_delta"`
	Contracts      int     `json:"contracts"`
}

// Event is a typed envelope: exactly one payload pointer is set, matching
// Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	PositionRisk   *PositionRiskAlert       `json:"position_risk,omitempty"`
	PortfolioLimit *PortfolioLimitViolation `json:"portfolio_limit,omitempty"`
	AutoClose      *AutoCloseTriggered      `json:"auto_close,omitempty"`
	AutoHedge      *AutoHedgeTriggered      `json:"auto_hedge,omitempty"`
}
