package risk

import "github.com/dgnsrekt/risk-monitor/internal/position"

// Assess runs every applicable factor for the position and folds them into a
// composite assessment. Long legs carry no assignment exposure and score 0.
// The composite sum is deliberately unbounded; the action table tops out at
// 80 and the raw sum keeps its value for ranking.
func Assess(p position.Position, th Thresholds, mc Context) Assessment {
	a := Assessment{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Level:      LevelLow,
		Timestamp:  mc.Now,
	}

	if p.Side != position.Short {
		return a
	}

	factors := []Factor{
		AssessExpiration(p, th, mc),
		AssessEarlyAssignment(p, th, mc),
		AssessDividend(p, th, mc),
		AssessPinRisk(p, th, mc),
	}

	for _, f := range factors {
		if f.Level == LevelNone {
			continue
		}
		a.Factors = append(a.Factors, f)
		a.Score += f.Score
	}

	switch {
	case a.Score >= 80:
		a.Level = LevelCritical
		a.Actions = append(a.Actions, ActionCloseImmediately)
	case a.Score >= 60:
		a.Level = LevelHigh
		a.Actions = append(a.Actions, ActionCloseToday)
	case a.Score >= 40:
		a.Level = LevelMedium
		a.Actions = append(a.Actions, ActionMonitorClosely)
	case a.Score >= 20:
		a.Level = LevelLow
		a.Actions = append(a.Actions, ActionNormalMonitoring)
	}

	return a
}
