package risk

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// AssessEarlyAssignment scores the chance a short leg gets assigned before
// expiration. Long legs never accrue assignment risk.
func AssessEarlyAssignment(p position.Position, th Thresholds, mc Context) Factor {
	if p.Side != position.Short {
		return none(FactorEarlyAssignment)
	}

	// Without a price the moneyness is unknown; a supplied delta still lets
	// the delta bands fire.
	moneyness := 0.0
	if mc.HasPrice {
		moneyness = Moneyness(p.Type, mc.UnderlyingPrice, p.Strike)
	} else if p.Delta == nil {
		return none(FactorEarlyAssignment)
	}

	delta := EstimateDelta(moneyness)
	if p.Delta != nil {
		delta = math.Abs(*p.Delta)
	}

	highDelta := th.EarlyAssignmentDelta
	medDelta := th.EarlyAssignmentDelta - 0.10
	lowDelta := th.EarlyAssignmentDelta - 0.20

	switch {
	case moneyness > 0.10 || delta > highDelta:
		return Factor{
			Type:    FactorEarlyAssignment,
			Level:   LevelHigh,
			Score:   40,
			Message: fmt.Sprintf("deep ITM (moneyness %.3f, delta %.2f)", moneyness, delta),
		}
	case moneyness > 0.05 || delta > medDelta:
		return Factor{
			Type:    FactorEarlyAssignment,
			Level:   LevelMedium,
			Score:   25,
			Message: fmt.Sprintf("ITM (moneyness %.3f, delta %.2f)", moneyness, delta),
		}
	case moneyness > 0.02 || delta > lowDelta:
		return Factor{
			Type:    FactorEarlyAssignment,
			Level:   LevelLow,
			Score:   15,
			Message: fmt.Sprintf("slightly ITM (moneyness %.3f)", moneyness),
		}
	case moneyness > 0:
		return Factor{
			Type:    FactorEarlyAssignment,
			Level:   LevelLow,
			Score:   5,
			Message: fmt.Sprintf("marginally ITM (moneyness %.3f)", moneyness),
		}
	default:
		return none(FactorEarlyAssignment)
	}
}
