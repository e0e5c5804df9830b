package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a minimal configuration that passes validation.
// Individual tests break one field at a time.
func validConfig() *SimulationConfig {
	return &SimulationConfig{
		ScenarioCount:    100,
		HorizonMonths:    28,
		MarketVolatility: decimal.NewFromFloat(0.16),
		Growth: GrowthLayer{
			Beta:           decimal.NewFromFloat(1.2),
			ExpectedReturn: decimal.NewFromFloat(0.18),
			Volatility:     decimal.NewFromFloat(0.22),
			InitialValue:   decimal.NewFromInt(100000),
		},
		Income: IncomeLayer{
			InitialValue:      decimal.NewFromInt(50000),
			MonthlyDeployment: decimal.NewFromInt(10000),
			Buckets: []IncomeBucket{
				{Name: "core", Allocation: decimal.NewFromFloat(0.6), AnnualYield: decimal.NewFromFloat(0.10), Volatility: decimal.NewFromFloat(0.10)},
				{Name: "high_yield", Allocation: decimal.NewFromFloat(0.4), AnnualYield: decimal.NewFromFloat(0.40), Volatility: decimal.NewFromFloat(0.40), FatTail: true},
			},
		},
		Stock: StockPosition{
			ExpectedReturn:    decimal.NewFromFloat(0.15),
			Volatility:        decimal.NewFromFloat(0.30),
			InitialValue:      decimal.NewFromInt(2000),
			MonthlyDeployment: decimal.NewFromInt(1000),
		},
		Hedge: HedgeLayer{
			Leverage:          decimal.NewFromFloat(3.0),
			AnnualDecay:       decimal.NewFromFloat(0.02),
			InitialValue:      decimal.NewFromInt(10000),
			MonthlyDeployment: decimal.NewFromInt(800),
		},
		Margin: MarginPolicy{
			InitialBalance:    decimal.NewFromInt(3000),
			AnnualRate:        decimal.NewFromFloat(0.12),
			MinPortfolioRatio: decimal.NewFromFloat(3.0),
			BackstopCap:       decimal.NewFromInt(20000),
			Schedule: []MarginWindow{
				{FromMonth: 1, ToMonth: 6, Amount: decimal.NewFromInt(4500)},
				{FromMonth: 7, ToMonth: 28, Amount: decimal.NewFromInt(8000)},
			},
		},
		Yield: YieldPolicy{
			DegradationRate:  decimal.NewFromFloat(0.15),
			ActiveManagement: true,
			RecoveryTrigger:  decimal.NewFromFloat(0.15),
			RecoveryFraction: decimal.NewFromFloat(0.12),
		},
		Regimes: []Regime{
			{Name: "bull", Probability: decimal.NewFromFloat(0.5), AnnualDrift: decimal.NewFromFloat(0.15), VolMultiplier: decimal.NewFromFloat(0.8)},
			{Name: "bear", Probability: decimal.NewFromFloat(0.5), AnnualDrift: decimal.NewFromFloat(-0.15), VolMultiplier: decimal.NewFromFloat(1.5)},
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SimulationConfig)
		errPart string
	}{
		{"zero scenario count", func(c *SimulationConfig) { c.ScenarioCount = 0 }, "scenario count"},
		{"negative horizon", func(c *SimulationConfig) { c.HorizonMonths = -1 }, "horizon"},
		{"horizon over cap", func(c *SimulationConfig) { c.HorizonMonths = 601 }, "horizon"},
		{"negative market vol", func(c *SimulationConfig) { c.MarketVolatility = decimal.NewFromFloat(-0.1) }, "market volatility"},
		{"negative growth vol", func(c *SimulationConfig) { c.Growth.Volatility = decimal.NewFromFloat(-0.2) }, "growth layer volatility"},
		{"no income buckets", func(c *SimulationConfig) { c.Income.Buckets = nil }, "income bucket"},
		{"unnamed bucket", func(c *SimulationConfig) { c.Income.Buckets[0].Name = "" }, "name is required"},
		{"allocations below one", func(c *SimulationConfig) {
			c.Income.Buckets[0].Allocation = decimal.NewFromFloat(0.5)
		}, "sum to 1.0"},
		{"negative bucket yield", func(c *SimulationConfig) {
			c.Income.Buckets[1].AnnualYield = decimal.NewFromFloat(-0.1)
		}, "annual yield"},
		{"zero hedge leverage", func(c *SimulationConfig) { c.Hedge.Leverage = decimal.Zero }, "leverage"},
		{"negative margin rate", func(c *SimulationConfig) { c.Margin.AnnualRate = decimal.NewFromFloat(-0.01) }, "annual rate"},
		{"zero safety ratio", func(c *SimulationConfig) { c.Margin.MinPortfolioRatio = decimal.Zero }, "ratio must be positive"},
		{"inverted schedule window", func(c *SimulationConfig) {
			c.Margin.Schedule[0] = MarginWindow{FromMonth: 6, ToMonth: 1, Amount: decimal.NewFromInt(100)}
		}, "to_month"},
		{"overlapping schedule windows", func(c *SimulationConfig) {
			c.Margin.Schedule[1].FromMonth = 6
		}, "overlaps"},
		{"degradation rate above one", func(c *SimulationConfig) {
			c.Yield.DegradationRate = decimal.NewFromFloat(1.5)
		}, "degradation rate"},
		{"no regimes", func(c *SimulationConfig) { c.Regimes = nil }, "regime"},
		{"regime probabilities below one", func(c *SimulationConfig) {
			c.Regimes[0].Probability = decimal.NewFromFloat(0.3)
		}, "probabilities must sum"},
		{"negative regime vol multiplier", func(c *SimulationConfig) {
			c.Regimes[1].VolMultiplier = decimal.NewFromFloat(-1)
		}, "vol multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestBlendedTargetYield(t *testing.T) {
	cfg := validConfig()
	// 0.6*0.10 + 0.4*0.40 = 0.22
	assert.True(t, cfg.BlendedTargetYield().Equal(decimal.NewFromFloat(0.22)),
		"got %s", cfg.BlendedTargetYield())
}

func TestDrawForMonth(t *testing.T) {
	cfg := validConfig()

	assert.True(t, cfg.Margin.DrawForMonth(1).Equal(decimal.NewFromInt(4500)))
	assert.True(t, cfg.Margin.DrawForMonth(6).Equal(decimal.NewFromInt(4500)))
	assert.True(t, cfg.Margin.DrawForMonth(7).Equal(decimal.NewFromInt(8000)))
	assert.True(t, cfg.Margin.DrawForMonth(28).Equal(decimal.NewFromInt(8000)))
	assert.True(t, cfg.Margin.DrawForMonth(29).IsZero(), "months past the schedule draw nothing")
}
