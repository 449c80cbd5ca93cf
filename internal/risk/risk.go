package risk

import (
	"time"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// FactorType identifies one of the independent risk dimensions.
type FactorType string

const (
	FactorExpiration      FactorType = "EXPIRATION"
	FactorEarlyAssignment FactorType = "EARLY_ASSIGNMENT"
	FactorDividend        FactorType = "DIVIDEND"
	FactorPinRisk         FactorType = "PIN_RISK"
)

// Level is the discrete severity of a factor or a composite assessment.
type Level string

const (
	LevelNone     Level = "NONE"
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Rank orders levels for comparison, NONE lowest.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	default:
		return 0
	}
}

// Factor is one scored risk dimension. A factor at LevelNone always carries
// score 0. Factors are recomputed fresh on every assessment, never persisted.
type Factor struct {
	Type    FactorType `json:"type"`
	Level   Level      `json:"level"`
	Score   float64    `json:"score"`
	Message string     `json:"message,omitempty"`
}

// Action is a recommended handling step, ordered most urgent first.
type Action string

const (
	ActionCloseImmediately Action = "CLOSE_IMMEDIATELY"
	ActionCloseToday       Action = "CLOSE_TODAY"
	ActionMonitorClosely   Action = "MONITOR_CLOSELY"
	ActionNormalMonitoring Action = "NORMAL_MONITORING"
)

// Assessment is the composite result for one position. It references the
// position by id only and is superseded every cycle.
type Assessment struct {
	PositionID string    `json:"position_id"`
	Symbol     string    `json:"symbol"`
	Score      float64   `json:"score"`
	Level      Level     `json:"level"`
	Actions    []Action  `json:"actions,omitempty"`
	Factors    []Factor  `json:"factors,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Thresholds are the tunable scoring parameters. Zero-value fields are not
// usable; construct with DefaultThresholds and override.
type Thresholds struct {
	EarlyAssignmentDelta float64
	PinRiskRange         float64
	DividendRiskDays     int
	CriticalDTE          int
	WarningDTE           int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		EarlyAssignmentDelta: 0.80,
		PinRiskRange:         0.02,
		DividendRiskDays:     30,
		CriticalDTE:          0,
		WarningDTE:           7,
	}
}

// Context carries the market state an assessment runs against. Missing data
// is expressed through the Has flags; assessors fail open to LevelNone when a
// required input is absent.
type Context struct {
	UnderlyingPrice  float64
	HasPrice         bool
	DaysToExDividend int
	HasDividend      bool
	Now              time.Time
}

// DTE returns calendar days to expiration: 0 for a contract expiring today
// regardless of the intraday time, 1 for tomorrow, negative once expired.
func DTE(expiration, now time.Time) int {
	expDay := time.Date(expiration.Year(), expiration.Month(), expiration.Day(), 0, 0, 0, 0, time.UTC)
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(expDay.Sub(nowDay) / (24 * time.Hour))
}

// Moneyness returns (underlying-strike)/strike sign-adjusted so that a
// positive value always means in-the-money for the holder of the contract.
func Moneyness(optType position.OptionType, underlying, strike float64) float64 {
	m := (underlying - strike) / strike
	if optType == position.Put {
		return -m
	}
	return m
}

// EstimateDelta approximates |delta| from moneyness when no market delta is
// supplied. Step table, not a model.
func EstimateDelta(moneyness float64) float64 {
	switch {
	case moneyness > 0.10:
		return 0.90
	case moneyness > 0.05:
		return 0.75
	case moneyness > 0.02:
		return 0.60
	case moneyness > 0:
		return 0.55
	case moneyness > -0.02:
		return 0.45
	case moneyness > -0.05:
		return 0.25
	default:
		return 0.10
	}
}

func none(t FactorType) Factor {
	return Factor{Type: t, Level: LevelNone, Score: 0}
}
