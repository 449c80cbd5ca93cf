package risk

import (
	"testing"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

func TestAssessLongPositionScoresZero(t *testing.T) {
	th := DefaultThresholds()

	// A long leg scores 0 even when every factor would otherwise fire.
	p := shortCall(100, 0)
	p.Side = position.Long

	mc := ctxWithPrice(100.5)
	mc.DaysToExDividend = 1
	mc.HasDividend = true

	a := Assess(p, th, mc)
	if a.Score != 0 || a.Level != LevelLow {
		t.Errorf("long leg scored %v/%s, want 0/LOW", a.Score, a.Level)
	}
	if len(a.Factors) != 0 || len(a.Actions) != 0 {
		t.Errorf("long leg produced factors %v actions %v, want none", a.Factors, a.Actions)
	}
}

func TestAssessExpiringNearStrike(t *testing.T) {
	th := DefaultThresholds()

	// Short call expiring today within 1% of the strike: expiration 50,
	// marginal assignment 5, pin 35.
	a := Assess(shortCall(100, 0), th, ctxWithPrice(100.5))

	if a.Score != 90 {
		t.Errorf("score = %v, want 90", a.Score)
	}
	if a.Level != LevelCritical {
		t.Errorf("level = %s, want CRITICAL", a.Level)
	}
	if len(a.Actions) != 1 || a.Actions[0] != ActionCloseImmediately {
		t.Errorf("actions = %v, want [CLOSE_IMMEDIATELY]", a.Actions)
	}
	if len(a.Factors) != 3 {
		t.Errorf("got %d factors, want 3: %v", len(a.Factors), a.Factors)
	}
}

func TestAssessQuietShortPut(t *testing.T) {
	th := DefaultThresholds()

	// Short put ten days out and 5% OTM: nothing fires.
	a := Assess(shortPut(100, 10), th, ctxWithPrice(105))

	if a.Score != 0 {
		t.Errorf("score = %v, want 0", a.Score)
	}
	if a.Level != LevelLow {
		t.Errorf("level = %s, want LOW", a.Level)
	}
	if len(a.Actions) != 0 {
		t.Errorf("actions = %v, want none", a.Actions)
	}
	if len(a.Factors) != 0 {
		t.Errorf("factors = %v, want none", a.Factors)
	}
}

func TestAssessScoreIsSumOfFactors(t *testing.T) {
	th := DefaultThresholds()

	cases := []struct {
		p  position.Position
		mc Context
	}{
		{shortCall(100, 0), ctxWithPrice(100.5)},
		{shortCall(100, 2), ctxWithPrice(112)},
		{shortPut(100, 5), ctxWithPrice(96)},
		{shortCall(100, 30), Context{Now: testNow}},
	}

	for _, tc := range cases {
		a := Assess(tc.p, th, tc.mc)

		sum := 0.0
		for _, f := range a.Factors {
			if f.Level == LevelNone {
				t.Errorf("NONE factor retained: %v", f)
			}
			sum += f.Score
		}
		if a.Score != sum {
			t.Errorf("score %v != factor sum %v", a.Score, sum)
		}
	}
}

func TestAssessActionThresholds(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name       string
		p          position.Position
		price      float64
		wantScore  float64
		wantLevel  Level
		wantAction Action
	}{
		// expiration 40 + assignment 25
		{"high closes today", shortCall(100, 1), 106, 65, LevelHigh, ActionCloseToday},
		// expiration 25 + assignment 15
		{"medium monitors closely", shortCall(100, 2), 103, 40, LevelMedium, ActionMonitorClosely},
		// expiration 10 + assignment 15
		{"low with action", shortCall(100, 5), 103, 25, LevelLow, ActionNormalMonitoring},
		// expiration 10 only, below the action floor
		{"low without action", shortPut(100, 5), 103, 10, LevelLow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(tt.p, th, ctxWithPrice(tt.price))
			if a.Score != tt.wantScore {
				t.Errorf("score = %v, want %v", a.Score, tt.wantScore)
			}
			if a.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", a.Level, tt.wantLevel)
			}
			if tt.wantAction == "" {
				if len(a.Actions) != 0 {
					t.Errorf("actions = %v, want none", a.Actions)
				}
				return
			}
			if len(a.Actions) != 1 || a.Actions[0] != tt.wantAction {
				t.Errorf("actions = %v, want [%s]", a.Actions, tt.wantAction)
			}
		})
	}
}

func TestLevelRank(t *testing.T) {
	order := []Level{LevelNone, LevelLow, LevelMedium, LevelHigh, LevelCritical}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s should rank above %s", order[i], order[i-1])
		}
	}
}
