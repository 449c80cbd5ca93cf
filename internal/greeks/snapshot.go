package greeks

import (
	"time"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// Source records where a snapshot's values came from.
type Source string

const (
	SourceAPI      Source = "API"
	SourceEstimate Source = "ESTIMATE"
)

// ContractRef identifies one option contract.
type ContractRef struct {
	Symbol     string
	Strike     float64
	Expiration time.Time
	Type       position.OptionType
}

// Key is the comparable cache key for a contract.
type Key struct {
	Symbol     string
	Strike     float64
	Expiration string // YYYY-MM-DD
	Type       position.OptionType
}

func (r ContractRef) Key() Key {
	return Key{
		Symbol:     r.Symbol,
		Strike:     r.Strike,
		Expiration: r.Expiration.Format("2006-01-02"),
		Type:       r.Type,
	}
}

// RefFor builds the contract reference for a position.
func RefFor(p position.Position) ContractRef {
	return ContractRef{
		Symbol:     p.Symbol,
		Strike:     p.Strike,
		Expiration: p.Expiration,
		Type:       p.Type,
	}
}

// Snapshot is a point-in-time set of per-contract Greeks.
type Snapshot struct {
	Symbol     string              `json:"symbol"`
	Strike     float64             `json:"strike"`
	Expiration time.Time           `json:"expiration"`
	Type       position.OptionType `json:"option_type"`
	Delta      float64             `json:"delta"`
	Gamma      float64             `json:"gamma"`
	Theta      float64             `json:"theta"`
	Vega       float64             `json:"vega"`
	Rho        float64             `json:"rho"`
	Source     Source              `json:"source"`
	FetchedAt  time.Time           `json:"fetched_at"`
}

func (s Snapshot) Ref() ContractRef {
	return ContractRef{Symbol: s.Symbol, Strike: s.Strike, Expiration: s.Expiration, Type: s.Type}
}
