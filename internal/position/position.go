package position

import (
	"fmt"
	"time"
)

// OptionType is the contract right.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// Side is the book side of the leg.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Position is a monitored option leg. Instances handed out by the Store are
// copies; callers never hold a reference into the arena.
type Position struct {
	ID               string     `json:"id"`
	Symbol           string     `json:"symbol"`
	Strike           float64    `json:"strike"`
	Expiration       time.Time  `json:"expiration"`
	Type             OptionType `json:"option_type"`
	Side             Side       `json:"side"`
	Quantity         int        `json:"quantity"`
	Multiplier       int        `json:"multiplier"`
	Delta            *float64   `json:"delta,omitempty"`
	Strategy         string     `json:"strategy,omitempty"`
	CorrelationGroup string     `json:"correlation_group,omitempty"`
	AddedAt          time.Time  `json:"added_at"`
	LastChecked      time.Time  `json:"last_checked,omitempty"`
	RiskLevel        string     `json:"risk_level,omitempty"`
	LastRiskScore    float64    `json:"last_risk_score"`
}

// DeriveID builds a stable identifier from the contract coordinates and the
// creation time. Used when the caller does not supply an ID.
func DeriveID(symbol string, strike float64, expiration, addedAt time.Time) string {
	return fmt.Sprintf("%s-%.2f-%s-%d", symbol, strike, expiration.Format("2006-01-02"), addedAt.UnixNano())
}

// Validate checks the fields a position must carry before it can be monitored.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if p.Strike <= 0 {
		return fmt.Errorf("strike must be > 0")
	}
	if p.Expiration.IsZero() {
		return fmt.Errorf("expiration is required")
	}
	if p.Type != Call && p.Type != Put {
		return fmt.Errorf("option type must be %s or %s", Call, Put)
	}
	if p.Side != Long && p.Side != Short {
		return fmt.Errorf("side must be %s or %s", Long, Short)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("quantity must be > 0")
	}
	return nil
}

// SignedQuantity returns quantity negated for short legs.
func (p *Position) SignedQuantity() int {
	if p.Side == Short {
		return -p.Quantity
	}
	return p.Quantity
}
