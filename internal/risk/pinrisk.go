package risk

import (
	"fmt"
	"math"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// AssessPinRisk scores settlement uncertainty when the underlying sits close
// to the strike going into expiration. Only evaluated with one day or less
// remaining; distance is relative to the strike.
func AssessPinRisk(p position.Position, th Thresholds, mc Context) Factor {
	dte := DTE(p.Expiration, mc.Now)
	if dte > 1 || !mc.HasPrice {
		return none(FactorPinRisk)
	}

	distance := math.Abs(mc.UnderlyingPrice-p.Strike) / p.Strike

	switch {
	case dte == 0 && distance <= th.PinRiskRange:
		return Factor{
			Type:    FactorPinRisk,
			Level:   LevelHigh,
			Score:   35,
			Message: fmt.Sprintf("pinned at expiry, %.2f%% from strike", distance*100),
		}
	case dte == 1 && distance <= 1.5*th.PinRiskRange:
		return Factor{
			Type:    FactorPinRisk,
			Level:   LevelMedium,
			Score:   20,
			Message: fmt.Sprintf("near strike into expiry, %.2f%% away", distance*100),
		}
	case dte == 0 && distance <= 2*th.PinRiskRange:
		return Factor{
			Type:    FactorPinRisk,
			Level:   LevelLow,
			Score:   10,
			Message: fmt.Sprintf("within pin watch range, %.2f%% from strike", distance*100),
		}
	default:
		return none(FactorPinRisk)
	}
}
