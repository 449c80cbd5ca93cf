package greeks

import (
	"math"
	"testing"
	"time"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

func TestEstimateATMCall(t *testing.T) {
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	params := EstimatorParams{Volatility: 0.30, RiskFreeRate: 0.05}
	ref := testRef("XYZ", 100, now.AddDate(0, 0, 30))

	snap := Estimate(ref, 100, params, now)

	if snap.Source != SourceEstimate {
		t.Errorf("source = %s, want ESTIMATE", snap.Source)
	}
	// Drift nudges an ATM call delta just above one half.
	if snap.Delta < 0.50 || snap.Delta > 0.60 {
		t.Errorf("ATM call delta = %v, want in [0.50, 0.60]", snap.Delta)
	}
	if snap.Gamma <= 0 {
		t.Errorf("gamma = %v, want positive", snap.Gamma)
	}
	if snap.Vega <= 0 {
		t.Errorf("vega = %v, want positive", snap.Vega)
	}
	if snap.Theta >= 0 {
		t.Errorf("call theta = %v, want negative", snap.Theta)
	}
}

func TestEstimateDeltaParity(t *testing.T) {
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	params := EstimatorParams{Volatility: 0.30, RiskFreeRate: 0.05}
	exp := now.AddDate(0, 0, 45)

	call := Estimate(testRef("XYZ", 100, exp), 103, params, now)

	put := testRef("XYZ", 100, exp)
	put.Type = position.Put
	putSnap := Estimate(put, 103, params, now)

	if diff := call.Delta - putSnap.Delta; math.Abs(diff-1) > 1e-9 {
		t.Errorf("call delta - put delta = %v, want 1", diff)
	}
	if math.Abs(call.Gamma-putSnap.Gamma) > 1e-9 {
		t.Errorf("call and put gamma differ: %v vs %v", call.Gamma, putSnap.Gamma)
	}
}

func TestEstimateDeepITM(t *testing.T) {
	now := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	params := EstimatorParams{Volatility: 0.30, RiskFreeRate: 0.05}
	exp := now.AddDate(0, 0, 30)

	call := Estimate(testRef("XYZ", 100, exp), 150, params, now)
	if call.Delta < 0.95 {
		t.Errorf("deep ITM call delta = %v, want > 0.95", call.Delta)
	}

	put := testRef("XYZ", 100, exp)
	put.Type = position.Put
	putSnap := Estimate(put, 60, params, now)
	if putSnap.Delta > -0.95 {
		t.Errorf("deep ITM put delta = %v, want < -0.95", putSnap.Delta)
	}
}

func TestEstimateAtExpiry(t *testing.T) {
	now := time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC)
	params := EstimatorParams{Volatility: 0.30, RiskFreeRate: 0.05}
	exp := now.Add(-time.Hour)

	tests := []struct {
		name      string
		optType   position.OptionType
		spot      float64
		wantDelta float64
	}{
		{"ITM call settles to stock", position.Call, 110, 1},
		{"OTM call settles to nothing", position.Call, 90, 0},
		{"ITM put settles short", position.Put, 90, -1},
		{"OTM put settles to nothing", position.Put, 110, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := testRef("XYZ", 100, exp)
			ref.Type = tt.optType
			snap := Estimate(ref, tt.spot, params, now)
			if snap.Delta != tt.wantDelta {
				t.Errorf("delta = %v, want %v", snap.Delta, tt.wantDelta)
			}
			if snap.Gamma != 0 || snap.Vega != 0 || snap.Theta != 0 {
				t.Errorf("expired contract has nonzero gamma/theta/vega: %+v", snap)
			}
		})
	}
}
