package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// weightTolerance is the allowed deviation when allocation weights or regime
// probabilities are required to sum to 1.0.
var weightTolerance = decimal.NewFromFloat(1e-9)

// GrowthLayer describes the closed growth sleeve. It receives no new capital
// during the simulation and grows only from market returns.
type GrowthLayer struct {
	Beta           decimal.Decimal `yaml:"beta" json:"beta"`
	ExpectedReturn decimal.Decimal `yaml:"expected_return" json:"expected_return"`
	Volatility     decimal.Decimal `yaml:"volatility" json:"volatility"`
	InitialValue   decimal.Decimal `yaml:"initial_value" json:"initial_value"`
}

// IncomeBucket is one named slice of the income sleeve. Allocation weights
// across all buckets must sum to 1.0. FatTail marks the high-yield bucket
// that occasionally draws from a widened distribution.
type IncomeBucket struct {
	Name        string          `yaml:"name" json:"name"`
	Allocation  decimal.Decimal `yaml:"allocation" json:"allocation"`
	AnnualYield decimal.Decimal `yaml:"annual_yield" json:"annual_yield"`
	Volatility  decimal.Decimal `yaml:"volatility" json:"volatility"`
	FatTail     bool            `yaml:"fat_tail,omitempty" json:"fat_tail,omitempty"`
}

// IncomeLayer describes the dividend-generating sleeve and its buckets.
type IncomeLayer struct {
	InitialValue      decimal.Decimal `yaml:"initial_value" json:"initial_value"`
	MonthlyDeployment decimal.Decimal `yaml:"monthly_deployment" json:"monthly_deployment"`
	Buckets           []IncomeBucket  `yaml:"buckets" json:"buckets"`
}

// StockPosition describes the single-stock sleeve. Its returns are drawn
// independently of the market reference.
type StockPosition struct {
	ExpectedReturn    decimal.Decimal `yaml:"expected_return" json:"expected_return"`
	Volatility        decimal.Decimal `yaml:"volatility" json:"volatility"`
	InitialValue      decimal.Decimal `yaml:"initial_value" json:"initial_value"`
	MonthlyDeployment decimal.Decimal `yaml:"monthly_deployment" json:"monthly_deployment"`
}

// HedgeLayer describes the leveraged inverse sleeve. AnnualDecay is the
// volatility-decay drag from daily leveraged rebalancing, expressed as an
// annual rate and applied monthly scaled by the regime's vol multiplier.
type HedgeLayer struct {
	Leverage          decimal.Decimal `yaml:"leverage" json:"leverage"`
	AnnualDecay       decimal.Decimal `yaml:"annual_decay" json:"annual_decay"`
	InitialValue      decimal.Decimal `yaml:"initial_value" json:"initial_value"`
	MonthlyDeployment decimal.Decimal `yaml:"monthly_deployment" json:"monthly_deployment"`
}

// MarginWindow is one step of the margin-draw schedule. Months are 1-based
// and both bounds are inclusive.
type MarginWindow struct {
	FromMonth int             `yaml:"from_month" json:"from_month"`
	ToMonth   int             `yaml:"to_month" json:"to_month"`
	Amount    decimal.Decimal `yaml:"amount" json:"amount"`
}

// MarginPolicy holds the margin-debt parameters: the draw schedule, the
// interest rate, the minimum portfolio:margin safety ratio, and the capped
// backstop available to cure a ratio breach.
type MarginPolicy struct {
	InitialBalance    decimal.Decimal `yaml:"initial_balance" json:"initial_balance"`
	AnnualRate        decimal.Decimal `yaml:"annual_rate" json:"annual_rate"`
	MinPortfolioRatio decimal.Decimal `yaml:"min_portfolio_ratio" json:"min_portfolio_ratio"`
	BackstopCap       decimal.Decimal `yaml:"backstop_cap" json:"backstop_cap"`
	Schedule          []MarginWindow  `yaml:"schedule" json:"schedule"`
}

// DrawForMonth returns the scheduled margin draw for a 1-based month.
// Months outside every window draw zero.
func (m MarginPolicy) DrawForMonth(month int) decimal.Decimal {
	for _, w := range m.Schedule {
		if month >= w.FromMonth && month <= w.ToMonth {
			return w.Amount
		}
	}
	return decimal.Zero
}

// YieldPolicy controls the blended-yield degradation over the horizon and
// the active-management recovery rule that partially restores it.
type YieldPolicy struct {
	DegradationRate  decimal.Decimal `yaml:"degradation_rate" json:"degradation_rate"`
	ActiveManagement bool            `yaml:"active_management" json:"active_management"`
	RecoveryTrigger  decimal.Decimal `yaml:"recovery_trigger" json:"recovery_trigger"`
	RecoveryFraction decimal.Decimal `yaml:"recovery_fraction" json:"recovery_fraction"`
}

// Regime is one macro-market state. A scenario draws exactly one regime and
// keeps it for the whole horizon. AnnualDrift is converted to monthly drift
// by the generator; VolMultiplier scales every layer's volatility.
type Regime struct {
	Name          string          `yaml:"name" json:"name"`
	Probability   decimal.Decimal `yaml:"probability" json:"probability"`
	AnnualDrift   decimal.Decimal `yaml:"annual_drift" json:"annual_drift"`
	VolMultiplier decimal.Decimal `yaml:"vol_multiplier" json:"vol_multiplier"`
}

// SimulationConfig is the immutable input to a Monte Carlo run. It is fixed
// at construction; the generator and simulator read it but never mutate it.
type SimulationConfig struct {
	ScenarioCount int   `yaml:"scenario_count" json:"scenario_count"`
	HorizonMonths int   `yaml:"horizon_months" json:"horizon_months"`
	Seed          int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// MarketVolatility is the annual volatility of the market reference
	// series every layer correlates against.
	MarketVolatility decimal.Decimal `yaml:"market_volatility" json:"market_volatility"`

	Growth  GrowthLayer   `yaml:"growth" json:"growth"`
	Income  IncomeLayer   `yaml:"income" json:"income"`
	Stock   StockPosition `yaml:"stock" json:"stock"`
	Hedge   HedgeLayer    `yaml:"hedge" json:"hedge"`
	Margin  MarginPolicy  `yaml:"margin" json:"margin"`
	Yield   YieldPolicy   `yaml:"yield" json:"yield"`
	Regimes []Regime      `yaml:"regimes" json:"regimes"`
}

// BlendedTargetYield is the weighted-average annual yield across the income
// buckets, before any degradation.
func (c *SimulationConfig) BlendedTargetYield() decimal.Decimal {
	blended := decimal.Zero
	for _, b := range c.Income.Buckets {
		blended = blended.Add(b.Allocation.Mul(b.AnnualYield))
	}
	return blended
}

// Validate rejects configurations that would produce nonsensical simulation
// output. It is called at engine construction so a bad config never reaches
// the scenario walk.
func (c *SimulationConfig) Validate() error {
	if c.ScenarioCount <= 0 {
		return fmt.Errorf("scenario count must be positive, got %d", c.ScenarioCount)
	}
	if c.HorizonMonths <= 0 || c.HorizonMonths > 600 {
		return fmt.Errorf("horizon months must be between 1 and 600, got %d", c.HorizonMonths)
	}
	if c.MarketVolatility.IsNegative() {
		return fmt.Errorf("market volatility cannot be negative")
	}

	if c.Growth.Volatility.IsNegative() {
		return fmt.Errorf("growth layer volatility cannot be negative")
	}
	if c.Growth.InitialValue.IsNegative() {
		return fmt.Errorf("growth layer initial value cannot be negative")
	}

	if err := c.validateIncome(); err != nil {
		return err
	}

	if c.Stock.Volatility.IsNegative() {
		return fmt.Errorf("stock volatility cannot be negative")
	}
	if c.Stock.InitialValue.IsNegative() || c.Stock.MonthlyDeployment.IsNegative() {
		return fmt.Errorf("stock initial value and monthly deployment cannot be negative")
	}

	if c.Hedge.Leverage.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("hedge leverage must be positive")
	}
	if c.Hedge.AnnualDecay.IsNegative() {
		return fmt.Errorf("hedge decay cannot be negative")
	}
	if c.Hedge.InitialValue.IsNegative() || c.Hedge.MonthlyDeployment.IsNegative() {
		return fmt.Errorf("hedge initial value and monthly deployment cannot be negative")
	}

	if err := c.validateMargin(); err != nil {
		return err
	}
	if err := c.validateYield(); err != nil {
		return err
	}
	return c.validateRegimes()
}

func (c *SimulationConfig) validateIncome() error {
	if len(c.Income.Buckets) == 0 {
		return fmt.Errorf("at least one income bucket is required")
	}
	if c.Income.InitialValue.IsNegative() || c.Income.MonthlyDeployment.IsNegative() {
		return fmt.Errorf("income initial value and monthly deployment cannot be negative")
	}

	weightSum := decimal.Zero
	for i, b := range c.Income.Buckets {
		if b.Name == "" {
			return fmt.Errorf("income bucket %d: name is required", i)
		}
		if b.Allocation.IsNegative() {
			return fmt.Errorf("income bucket %s: allocation cannot be negative", b.Name)
		}
		if b.AnnualYield.IsNegative() {
			return fmt.Errorf("income bucket %s: annual yield cannot be negative", b.Name)
		}
		if b.Volatility.IsNegative() {
			return fmt.Errorf("income bucket %s: volatility cannot be negative", b.Name)
		}
		weightSum = weightSum.Add(b.Allocation)
	}
	if weightSum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("income bucket allocations must sum to 1.0, got %s", weightSum)
	}
	return nil
}

func (c *SimulationConfig) validateMargin() error {
	m := c.Margin
	if m.InitialBalance.IsNegative() {
		return fmt.Errorf("margin initial balance cannot be negative")
	}
	if m.AnnualRate.IsNegative() {
		return fmt.Errorf("margin annual rate cannot be negative")
	}
	if m.MinPortfolioRatio.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("minimum portfolio:margin ratio must be positive")
	}
	if m.BackstopCap.IsNegative() {
		return fmt.Errorf("backstop cap cannot be negative")
	}

	prevEnd := 0
	for i, w := range m.Schedule {
		if w.FromMonth < 1 {
			return fmt.Errorf("margin schedule window %d: from_month must be >= 1", i)
		}
		if w.ToMonth < w.FromMonth {
			return fmt.Errorf("margin schedule window %d: to_month must be >= from_month", i)
		}
		if w.Amount.IsNegative() {
			return fmt.Errorf("margin schedule window %d: amount cannot be negative", i)
		}
		if w.FromMonth <= prevEnd {
			return fmt.Errorf("margin schedule window %d: overlaps or is out of order with the previous window", i)
		}
		prevEnd = w.ToMonth
	}
	return nil
}

func (c *SimulationConfig) validateYield() error {
	y := c.Yield
	if y.DegradationRate.IsNegative() || y.DegradationRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("yield degradation rate must be between 0 and 1")
	}
	if y.RecoveryTrigger.IsNegative() {
		return fmt.Errorf("yield recovery trigger cannot be negative")
	}
	if y.RecoveryFraction.IsNegative() {
		return fmt.Errorf("yield recovery fraction cannot be negative")
	}
	return nil
}

func (c *SimulationConfig) validateRegimes() error {
	if len(c.Regimes) == 0 {
		return fmt.Errorf("at least one market regime is required")
	}
	probSum := decimal.Zero
	for i, r := range c.Regimes {
		if r.Name == "" {
			return fmt.Errorf("regime %d: name is required", i)
		}
		if r.Probability.IsNegative() {
			return fmt.Errorf("regime %s: probability cannot be negative", r.Name)
		}
		if r.VolMultiplier.IsNegative() {
			return fmt.Errorf("regime %s: vol multiplier cannot be negative", r.Name)
		}
		probSum = probSum.Add(r.Probability)
	}
	if probSum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		return fmt.Errorf("regime probabilities must sum to 1.0, got %s", probSum)
	}
	return nil
}
