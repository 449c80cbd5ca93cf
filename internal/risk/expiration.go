package risk

import (
	"fmt"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// AssessExpiration scores time-to-expiration pressure. Pure function of the
// position's expiration date and the pass time.
func AssessExpiration(p position.Position, th Thresholds, mc Context) Factor {
	dte := DTE(p.Expiration, mc.Now)

	switch {
	case dte <= th.CriticalDTE:
		return Factor{
			Type:    FactorExpiration,
			Level:   LevelCritical,
			Score:   50,
			Message: "expires today",
		}
	case dte == 1:
		return Factor{
			Type:    FactorExpiration,
			Level:   LevelHigh,
			Score:   40,
			Message: "expires tomorrow",
		}
	case dte <= 3:
		return Factor{
			Type:    FactorExpiration,
			Level:   LevelMedium,
			Score:   25,
			Message: fmt.Sprintf("expires in %d days", dte),
		}
	case dte <= th.WarningDTE:
		return Factor{
			Type:    FactorExpiration,
			Level:   LevelLow,
			Score:   10,
			Message: fmt.Sprintf("expires in %d days", dte),
		}
	default:
		return none(FactorExpiration)
	}
}
