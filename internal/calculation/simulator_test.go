package calculation

import (
	"testing"

	"github.com/divsim/divsim/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// walkConfig returns a small zero-volatility configuration for exercising the
// monthly walk with hand-built return series.
func walkConfig() *domain.SimulationConfig {
	return &domain.SimulationConfig{
		ScenarioCount: 1,
		HorizonMonths: 3,
		Growth: domain.GrowthLayer{
			Beta:         decimal.NewFromFloat(1.0),
			InitialValue: decimal.NewFromInt(1000),
		},
		Income: domain.IncomeLayer{
			Buckets: []domain.IncomeBucket{
				{Name: "core", Allocation: decimal.NewFromInt(1)},
			},
		},
		Hedge: domain.HedgeLayer{
			Leverage: decimal.NewFromInt(1),
		},
		Margin: domain.MarginPolicy{
			MinPortfolioRatio: decimal.NewFromFloat(3.0),
		},
		Regimes: []domain.Regime{
			{Name: "normal", Probability: decimal.NewFromInt(1), VolMultiplier: decimal.NewFromInt(1)},
		},
	}
}

// flatReturns builds a return bundle where every layer returns v every month.
func flatReturns(months, buckets int, v float64) *ScenarioReturns {
	sr := &ScenarioReturns{
		Regime:  "normal",
		Market:  make([]float64, months),
		Growth:  make([]float64, months),
		Buckets: make([][]float64, months),
		Stock:   make([]float64, months),
		Hedge:   make([]float64, months),
	}
	for m := 0; m < months; m++ {
		sr.Market[m] = v
		sr.Growth[m] = v
		sr.Stock[m] = v
		sr.Hedge[m] = v
		sr.Buckets[m] = make([]float64, buckets)
		for b := range sr.Buckets[m] {
			sr.Buckets[m][b] = v
		}
	}
	return sr
}

func TestSimulateScenarioFloorsPositionsAtZero(t *testing.T) {
	cfg := walkConfig()
	cfg.Income.InitialValue = decimal.NewFromInt(1000)
	cfg.Income.MonthlyDeployment = decimal.NewFromInt(100)
	cfg.Stock.InitialValue = decimal.NewFromInt(500)
	cfg.Hedge.InitialValue = decimal.NewFromInt(200)

	// A -500% monthly return wipes every layer; values must floor at zero,
	// never go negative.
	result := SimulateScenario(cfg, flatReturns(3, 1, -5.0), 0)

	assert.True(t, result.FinalPortfolioValue.IsZero())
	assert.True(t, result.FinalGrowthValue.IsZero())
	assert.True(t, result.FinalIncomeValue.IsZero())
	assert.True(t, result.FinalStockValue.IsZero())
	assert.True(t, result.FinalHedgeValue.IsZero())
	for m, v := range result.MonthlyPortfolio {
		assert.False(t, v.IsNegative(), "month %d portfolio went negative", m+1)
	}
}

func TestSimulateScenarioDeploysNewCapital(t *testing.T) {
	cfg := walkConfig()
	cfg.Income.MonthlyDeployment = decimal.NewFromInt(100)
	cfg.Stock.MonthlyDeployment = decimal.NewFromInt(50)
	cfg.Hedge.MonthlyDeployment = decimal.NewFromInt(25)

	result := SimulateScenario(cfg, flatReturns(3, 1, 0), 0)

	// The growth sleeve is closed to new money; the others accumulate their
	// monthly deployments under zero returns.
	assert.True(t, result.FinalGrowthValue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.FinalIncomeValue.Equal(decimal.NewFromInt(300)))
	assert.True(t, result.FinalStockValue.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.FinalHedgeValue.Equal(decimal.NewFromInt(75)))
}

func TestSimulateScenarioMarginInterestAccrues(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 1
	cfg.Growth.InitialValue = decimal.NewFromInt(10000)
	cfg.Margin.InitialBalance = decimal.NewFromInt(1200)
	cfg.Margin.AnnualRate = decimal.NewFromFloat(0.12)

	result := SimulateScenario(cfg, flatReturns(1, 1, 0), 0)

	// 1200 at 1% monthly interest, no draws and no dividends.
	assert.True(t, result.FinalMarginBalance.Equal(decimal.NewFromInt(1212)),
		"got %s", result.FinalMarginBalance)
	assert.False(t, result.MarginCallTriggered)
}

func TestSimulateScenarioMarginCallUsesBackstop(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 1
	cfg.Growth.InitialValue = decimal.NewFromInt(10000)
	cfg.Margin.InitialBalance = decimal.NewFromInt(4000)
	cfg.Margin.BackstopCap = decimal.NewFromInt(1000)

	// Ratio 10000/4000 = 2.5 breaches the 3.0 minimum; the capped injection
	// pays the balance down to 3000.
	result := SimulateScenario(cfg, flatReturns(1, 1, 0), 0)

	assert.True(t, result.MarginCallTriggered)
	assert.True(t, result.BackstopUsed)
	assert.True(t, result.BackstopAmountUsed.Equal(decimal.NewFromInt(1000)))
	assert.True(t, result.FinalMarginBalance.Equal(decimal.NewFromInt(3000)))
	require.NotNil(t, result.FinalMarginRatio)
	expected := decimal.NewFromInt(10000).Div(decimal.NewFromInt(3000))
	assert.True(t, result.FinalMarginRatio.Equal(expected), "got %s", result.FinalMarginRatio)
}

func TestSimulateScenarioBackstopCappedByBalance(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 1
	cfg.Growth.InitialValue = decimal.NewFromInt(10000)
	cfg.Margin.InitialBalance = decimal.NewFromInt(4000)
	cfg.Margin.BackstopCap = decimal.NewFromInt(50000)

	result := SimulateScenario(cfg, flatReturns(1, 1, 0), 0)

	// The injection never exceeds the outstanding balance.
	assert.True(t, result.BackstopAmountUsed.Equal(decimal.NewFromInt(4000)))
	assert.True(t, result.FinalMarginBalance.IsZero())
	assert.Nil(t, result.FinalMarginRatio, "margin-free scenarios carry no ratio")
}

func TestSimulateScenarioBreakEvenAndPayoff(t *testing.T) {
	cfg := walkConfig()
	cfg.Income.InitialValue = decimal.NewFromInt(1000000)
	cfg.Income.Buckets[0].AnnualYield = decimal.NewFromFloat(0.06)
	cfg.Margin.Schedule = []domain.MarginWindow{
		{FromMonth: 1, ToMonth: 3, Amount: decimal.NewFromInt(4500)},
	}

	// $1M at 6% yields $5,000/month, covering the $4,500 draw from month 1.
	result := SimulateScenario(cfg, flatReturns(3, 1, 0), 0)

	require.NotNil(t, result.BreakEvenMonth)
	assert.Equal(t, 1, *result.BreakEvenMonth)
	require.NotNil(t, result.MarginPayoffMonth)
	assert.Equal(t, 2, *result.MarginPayoffMonth)
	assert.True(t, result.FinalMarginBalance.IsZero())
	assert.True(t, result.FinalAnnualDividend.Equal(decimal.NewFromInt(60000)),
		"got %s", result.FinalAnnualDividend)
	assert.True(t, result.TotalDividendsCollected.Equal(decimal.NewFromInt(15000)))
}

func TestSimulateScenarioBreakEvenNeverReached(t *testing.T) {
	cfg := walkConfig()
	cfg.Income.InitialValue = decimal.NewFromInt(1000000)
	cfg.Income.Buckets[0].AnnualYield = decimal.NewFromFloat(0.06)
	cfg.Margin.Schedule = []domain.MarginWindow{
		{FromMonth: 1, ToMonth: 3, Amount: decimal.NewFromInt(99999)},
	}

	result := SimulateScenario(cfg, flatReturns(3, 1, 0), 0)

	assert.Nil(t, result.BreakEvenMonth)
	assert.Nil(t, result.MarginPayoffMonth)
	require.NotNil(t, result.FinalMarginRatio)
	assert.True(t, result.FinalMarginBalance.IsPositive())
}

func TestSimulateScenarioDrawdownTracksRunningPeak(t *testing.T) {
	cfg := walkConfig()

	sr := flatReturns(3, 1, 0)
	sr.Growth = []float64{0, -0.5, 0.2}

	// Peak 1000 after month 1, trough 500 in month 2, partial recovery to 600.
	result := SimulateScenario(cfg, sr, 0)

	assert.True(t, result.MaxDrawdown.Equal(decimal.NewFromFloat(-0.5)),
		"got %s", result.MaxDrawdown)
	assert.True(t, result.FinalGrowthValue.Equal(decimal.NewFromInt(600)))
}

func TestMonthlyYieldDegradesLinearly(t *testing.T) {
	cfg := referenceConfig()
	cfg.Yield.ActiveManagement = false

	first := MonthlyYield(cfg, 1)
	assert.True(t, first.Equal(cfg.BlendedTargetYield()), "month 1 starts at the blended target")

	prev := first
	for month := 2; month <= cfg.HorizonMonths; month++ {
		current := MonthlyYield(cfg, month)
		assert.True(t, current.LessThan(prev), "yield should fall every month, month %d", month)
		prev = current
	}
}

func TestMonthlyYieldRecoveryKicksInAfterTrigger(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 10
	cfg.Income.Buckets[0].AnnualYield = decimal.NewFromFloat(0.12)
	cfg.Yield = domain.YieldPolicy{
		DegradationRate:  decimal.NewFromFloat(0.6),
		ActiveManagement: true,
		RecoveryTrigger:  decimal.NewFromFloat(0.15),
		RecoveryFraction: decimal.NewFromFloat(0.12),
	}

	// Month 7: decline 36% > 15% trigger, so 12% of the target is restored.
	// 0.12 - 6*0.0072 + 0.0144 = 0.0912
	got := MonthlyYield(cfg, 7)
	assert.True(t, got.Equal(decimal.NewFromFloat(0.0912)), "got %s", got)

	cfg.Yield.ActiveManagement = false
	unmanaged := MonthlyYield(cfg, 7)
	assert.True(t, got.GreaterThan(unmanaged))
}

func TestMonthlyYieldRecoveryCappedAtTarget(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 10
	cfg.Income.Buckets[0].AnnualYield = decimal.NewFromFloat(0.12)
	cfg.Yield = domain.YieldPolicy{
		DegradationRate:  decimal.NewFromFloat(0.6),
		ActiveManagement: true,
		RecoveryTrigger:  decimal.NewFromFloat(0.15),
		RecoveryFraction: decimal.NewFromInt(1),
	}

	got := MonthlyYield(cfg, 7)
	assert.True(t, got.Equal(decimal.NewFromFloat(0.12)), "recovery never exceeds the target, got %s", got)
}

func TestMonthlyYieldNoRecoveryBeforeMonthSeven(t *testing.T) {
	cfg := walkConfig()
	cfg.HorizonMonths = 10
	cfg.Income.Buckets[0].AnnualYield = decimal.NewFromFloat(0.12)
	cfg.Yield = domain.YieldPolicy{
		DegradationRate:  decimal.NewFromFloat(0.6),
		ActiveManagement: true,
		RecoveryTrigger:  decimal.NewFromFloat(0.15),
		RecoveryFraction: decimal.NewFromFloat(0.12),
	}

	managed := MonthlyYield(cfg, 6)
	cfg.Yield.ActiveManagement = false
	unmanaged := MonthlyYield(cfg, 6)
	assert.True(t, managed.Equal(unmanaged), "rotation only starts in month 7")
}

func TestWeightedIncomeReturn(t *testing.T) {
	cfg := walkConfig()
	cfg.Income.Buckets = []domain.IncomeBucket{
		{Name: "a", Allocation: decimal.NewFromFloat(0.6)},
		{Name: "b", Allocation: decimal.NewFromFloat(0.4)},
	}

	// 0.6*0.10 + 0.4*(-0.05) = 0.04
	got := weightedIncomeReturn(cfg, []float64{0.10, -0.05})
	assert.InDelta(t, 0.04, got, 1e-12)
}
