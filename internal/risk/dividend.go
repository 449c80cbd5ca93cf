package risk

import (
	"fmt"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// AssessDividend scores assignment pressure around an ex-dividend date.
// Applies only to short calls; missing dividend data fails open to NONE so a
// pass never blocks on the calendar.
func AssessDividend(p position.Position, th Thresholds, mc Context) Factor {
	if p.Side != position.Short || p.Type != position.Call {
		return none(FactorDividend)
	}
	if !mc.HasDividend || !mc.HasPrice {
		return none(FactorDividend)
	}

	days := mc.DaysToExDividend
	moneyness := Moneyness(p.Type, mc.UnderlyingPrice, p.Strike)

	switch {
	case days <= 1 && moneyness > -0.02:
		return Factor{
			Type:    FactorDividend,
			Level:   LevelCritical,
			Score:   45,
			Message: fmt.Sprintf("ex-dividend in %d day(s), near or in the money", days),
		}
	case days <= 5 && moneyness > 0:
		return Factor{
			Type:    FactorDividend,
			Level:   LevelHigh,
			Score:   35,
			Message: fmt.Sprintf("ex-dividend in %d days, ITM", days),
		}
	case days <= 10 && moneyness > 0.02:
		return Factor{
			Type:    FactorDividend,
			Level:   LevelMedium,
			Score:   20,
			Message: fmt.Sprintf("ex-dividend in %d days, ITM", days),
		}
	case days <= th.DividendRiskDays:
		return Factor{
			Type:    FactorDividend,
			Level:   LevelLow,
			Score:   10,
			Message: fmt.Sprintf("ex-dividend in %d days", days),
		}
	default:
		return none(FactorDividend)
	}
}
