package calculation

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/divsim/divsim/internal/domain"
)

// Correlation structure of the return model. The growth sleeve tracks the
// market tightly; income funds less so. The fat-tail draw widens the
// high-yield bucket's distribution with a flat monthly probability that does
// not depend on the regime.
const (
	growthMarketCorrelation = 0.85
	incomeMarketCorrelation = 0.70
	fatTailProbability      = 0.05
	fatTailVolMultiplier    = 2.5
	fatTailDriftFactor      = 0.8
)

// ScenarioReturns holds one scenario's monthly return series for every
// portfolio layer plus the underlying market reference. All slices have
// length equal to the simulation horizon; Buckets is indexed
// [month][bucket] in config order. Instances are created once by the
// generator and consumed read-only by the simulator.
type ScenarioReturns struct {
	Regime  string
	Market  []float64
	Growth  []float64
	Buckets [][]float64
	Stock   []float64
	Hedge   []float64
}

// regimeParams is a Regime converted to the monthly float terms the draws
// are made in.
type regimeParams struct {
	name          string
	probability   float64
	monthlyDrift  float64
	volMultiplier float64
}

// returnGenerator synthesizes scenario returns from a single random source.
// Generation is sequential so a fixed seed reproduces the full batch.
type returnGenerator struct {
	rng *rand.Rand

	months    int
	marketVol float64 // monthly

	growthBeta  float64
	growthVol   float64 // annual
	growthDrift float64 // monthly

	bucketVols    []float64 // annual
	bucketFatTail []bool

	stockDrift float64 // monthly
	stockVol   float64 // annual

	hedgeLeverage float64
	hedgeDecay    float64 // monthly

	regimes []regimeParams
}

const sqrt12 = 3.4641016151377544

func newReturnGenerator(cfg *domain.SimulationConfig, rng *rand.Rand) *returnGenerator {
	g := &returnGenerator{
		rng:           rng,
		months:        cfg.HorizonMonths,
		marketVol:     cfg.MarketVolatility.InexactFloat64() / sqrt12,
		growthBeta:    cfg.Growth.Beta.InexactFloat64(),
		growthVol:     cfg.Growth.Volatility.InexactFloat64(),
		growthDrift:   cfg.Growth.ExpectedReturn.InexactFloat64() / 12,
		stockDrift:    cfg.Stock.ExpectedReturn.InexactFloat64() / 12,
		stockVol:      cfg.Stock.Volatility.InexactFloat64(),
		hedgeLeverage: cfg.Hedge.Leverage.InexactFloat64(),
		hedgeDecay:    cfg.Hedge.AnnualDecay.InexactFloat64() / 12,
	}
	for _, b := range cfg.Income.Buckets {
		g.bucketVols = append(g.bucketVols, b.Volatility.InexactFloat64())
		g.bucketFatTail = append(g.bucketFatTail, b.FatTail)
	}
	for _, r := range cfg.Regimes {
		g.regimes = append(g.regimes, regimeParams{
			name:          r.Name,
			probability:   r.Probability.InexactFloat64(),
			monthlyDrift:  r.AnnualDrift.InexactFloat64() / 12,
			volMultiplier: r.VolMultiplier.InexactFloat64(),
		})
	}
	return g
}

// GenerateScenario draws one regime and synthesizes a full horizon of
// monthly returns for every layer under it.
func (g *returnGenerator) GenerateScenario() *ScenarioReturns {
	regime := g.drawRegime()
	mult := regime.volMultiplier

	sr := &ScenarioReturns{
		Regime:  regime.name,
		Market:  make([]float64, g.months),
		Growth:  make([]float64, g.months),
		Buckets: make([][]float64, g.months),
		Stock:   make([]float64, g.months),
		Hedge:   make([]float64, g.months),
	}

	for month := 0; month < g.months; month++ {
		marketRet := g.normal(regime.monthlyDrift, g.marketVol*mult)
		sr.Market[month] = marketRet

		// Growth sleeve: beta exposure to the market plus an idiosyncratic
		// term, with the layer's own drift replacing the regime drift.
		growthVol := g.growthVol * mult / sqrt12
		idio := g.normal(0, growthVol*(1-growthMarketCorrelation))
		sr.Growth[month] = g.growthBeta*marketRet + idio + (g.growthDrift - regime.monthlyDrift)

		sr.Buckets[month] = make([]float64, len(g.bucketVols))
		for i, annualVol := range g.bucketVols {
			bucketVol := annualVol * mult / sqrt12
			if g.bucketFatTail[i] && g.rng.Float64() < fatTailProbability {
				sr.Buckets[month][i] = g.normal(regime.monthlyDrift*fatTailDriftFactor, bucketVol*fatTailVolMultiplier)
			} else {
				idio := g.normal(0, bucketVol*(1-incomeMarketCorrelation))
				sr.Buckets[month][i] = marketRet*incomeMarketCorrelation + idio
			}
		}

		// Single stock: independent of the market reference.
		sr.Stock[month] = g.normal(g.stockDrift, g.stockVol*mult/sqrt12)

		// Inverse hedge: leveraged inverse market exposure with a decay drag
		// from daily rebalancing, worse in high-vol regimes.
		sr.Hedge[month] = -g.hedgeLeverage*marketRet - g.hedgeDecay*mult
	}

	return sr
}

// drawRegime samples one regime from the categorical distribution. The
// regime is fixed for the scenario's whole horizon.
func (g *returnGenerator) drawRegime() regimeParams {
	u := g.rng.Float64()
	cumulative := 0.0
	for _, r := range g.regimes {
		cumulative += r.probability
		if u < cumulative {
			return r
		}
	}
	return g.regimes[len(g.regimes)-1]
}

// normal draws a normal variate via the Box-Muller transform.
func (g *returnGenerator) normal(mean, stdDev float64) float64 {
	u1 := 1 - g.rng.Float64() // (0,1], keeps Log finite
	u2 := g.rng.Float64()
	return mean + boxMullerTransform(u1, u2)*stdDev
}

// boxMullerTransform converts two uniform variates to a standard normal one.
func boxMullerTransform(u1, u2 float64) float64 {
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// checkReturns rejects a scenario containing NaN or infinite draws so a
// single corrupted scenario cannot silently skew every percentile.
func checkReturns(sr *ScenarioReturns) error {
	check := func(series string, vals []float64) error {
		for m, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s return is not finite at month %d (regime %s)", series, m+1, sr.Regime)
			}
		}
		return nil
	}
	if err := check("market", sr.Market); err != nil {
		return err
	}
	if err := check("growth", sr.Growth); err != nil {
		return err
	}
	for _, monthVals := range sr.Buckets {
		if err := check("income bucket", monthVals); err != nil {
			return err
		}
	}
	if err := check("stock", sr.Stock); err != nil {
		return err
	}
	return check("hedge", sr.Hedge)
}
