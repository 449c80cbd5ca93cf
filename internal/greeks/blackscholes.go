package greeks

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dgnsrekt/risk-monitor/internal/position"
)

// EstimatorParams are the model inputs the estimator assumes when the market
// does not supply them.
type EstimatorParams struct {
	Volatility   float64
	RiskFreeRate float64
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// Estimate computes Black-Scholes Greeks for a contract. This is the degraded
// path for when the provider is unavailable; estimated snapshots are tagged
// SourceEstimate so downstream consumers can tell them apart.
func Estimate(ref ContractRef, spot float64, params EstimatorParams, now time.Time) Snapshot {
	snap := Snapshot{
		Symbol:     ref.Symbol,
		Strike:     ref.Strike,
		Expiration: ref.Expiration,
		Type:       ref.Type,
		Source:     SourceEstimate,
		FetchedAt:  now,
	}

	t := ref.Expiration.Sub(now).Hours() / 24 / 365
	if t <= 0 || spot <= 0 || ref.Strike <= 0 {
		// At or past expiry the contract behaves like stock or nothing.
		if ref.Type == position.Call && spot > ref.Strike {
			snap.Delta = 1
		} else if ref.Type == position.Put && spot < ref.Strike {
			snap.Delta = -1
		}
		return snap
	}

	sigma := params.Volatility
	r := params.RiskFreeRate
	sqrtT := math.Sqrt(t)

	d1 := (math.Log(spot/ref.Strike) + (r+sigma*sigma/2)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	nd1 := stdNormal.CDF(d1)
	pd1 := stdNormal.Prob(d1)

	if ref.Type == position.Call {
		snap.Delta = nd1
		snap.Theta = (-spot*pd1*sigma/(2*sqrtT) - r*ref.Strike*math.Exp(-r*t)*stdNormal.CDF(d2)) / 365
		snap.Rho = ref.Strike * t * math.Exp(-r*t) * stdNormal.CDF(d2) / 100
	} else {
		snap.Delta = nd1 - 1
		snap.Theta = (-spot*pd1*sigma/(2*sqrtT) + r*ref.Strike*math.Exp(-r*t)*stdNormal.CDF(-d2)) / 365
		snap.Rho = -ref.Strike * t * math.Exp(-r*t) * stdNormal.CDF(-d2) / 100
	}

	snap.Gamma = pd1 / (spot * sigma * sqrtT)
	snap.Vega = spot * pd1 * sqrtT / 100

	return snap
}
