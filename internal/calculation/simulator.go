package calculation

import (
	"github.com/divsim/divsim/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	one    = decimal.NewFromInt(1)
	twelve = decimal.NewFromInt(12)
)

// ScenarioResult is the terminal record of one scenario's 28-month walk,
// plus the full monthly time series for charting.
type ScenarioResult struct {
	ScenarioID int    `json:"scenario_id"`
	Regime     string `json:"regime"`

	FinalPortfolioValue decimal.Decimal `json:"final_portfolio_value"`
	FinalGrowthValue    decimal.Decimal `json:"final_growth_value"`
	FinalIncomeValue    decimal.Decimal `json:"final_income_value"`
	FinalStockValue     decimal.Decimal `json:"final_stock_value"`
	FinalHedgeValue     decimal.Decimal `json:"final_hedge_value"`
	FinalMarginBalance  decimal.Decimal `json:"final_margin_balance"`

	// FinalMarginRatio is nil when the scenario ends margin-free (the ratio
	// would be infinite).
	FinalMarginRatio *decimal.Decimal `json:"final_margin_ratio"`

	FinalAnnualDividend     decimal.Decimal `json:"final_annual_dividend"`
	TotalDividendsCollected decimal.Decimal `json:"total_dividends_collected"`

	// MaxDrawdown is the most negative peak-to-trough fraction observed
	// (zero if the portfolio never traded below its running peak).
	MaxDrawdown decimal.Decimal `json:"max_drawdown"`

	MarginCallTriggered bool            `json:"margin_call_triggered"`
	BackstopUsed        bool            `json:"backstop_used"`
	BackstopAmountUsed  decimal.Decimal `json:"backstop_amount_used"`

	// BreakEvenMonth is the first month whose dividend covered that month's
	// scheduled draw; MarginPayoffMonth the first month after month 1 with a
	// zero margin balance. Nil means the milestone was never reached.
	BreakEvenMonth    *int `json:"break_even_month"`
	MarginPayoffMonth *int `json:"margin_payoff_month"`

	MonthlyPortfolio []decimal.Decimal `json:"monthly_portfolio,omitempty"`
	MonthlyGrowth    []decimal.Decimal `json:"monthly_growth,omitempty"`
	MonthlyIncome    []decimal.Decimal `json:"monthly_income,omitempty"`
	MonthlyStock     []decimal.Decimal `json:"monthly_stock,omitempty"`
	MonthlyHedge     []decimal.Decimal `json:"monthly_hedge,omitempty"`
	MonthlyMargin    []decimal.Decimal `json:"monthly_margin,omitempty"`
	MonthlyDividends []decimal.Decimal `json:"monthly_dividends,omitempty"`
}

// MonthlyYield computes the blended dividend yield for a 1-based month:
// a linear degradation from the blended target toward target*(1-degradation),
// with an active-management recovery that rotates out underperformers once
// the decline exceeds the trigger (from month 7 onward). The recovered yield
// is capped at the original target.
func MonthlyYield(cfg *domain.SimulationConfig, month int) decimal.Decimal {
	startYield := cfg.BlendedTargetYield()
	endYield := startYield.Mul(one.Sub(cfg.Yield.DegradationRate))
	degradationPerMonth := startYield.Sub(endYield).Div(decimal.NewFromInt(int64(cfg.HorizonMonths)))
	currentYield := startYield.Sub(degradationPerMonth.Mul(decimal.NewFromInt(int64(month - 1))))

	if cfg.Yield.ActiveManagement && month > 6 && startYield.IsPositive() {
		decline := startYield.Sub(currentYield).Div(startYield)
		if decline.GreaterThan(cfg.Yield.RecoveryTrigger) {
			recovery := startYield.Mul(cfg.Yield.RecoveryFraction)
			currentYield = decimal.Min(startYield, currentYield.Add(recovery))
		}
	}

	return currentYield
}

// SimulateScenario walks one scenario's portfolio state month by month.
// It is deterministic given its inputs: all randomness lives in the
// ScenarioReturns produced by the generator.
func SimulateScenario(cfg *domain.SimulationConfig, returns *ScenarioReturns, scenarioID int) *ScenarioResult {
	growthValue := cfg.Growth.InitialValue
	incomeValue := cfg.Income.InitialValue
	stockValue := cfg.Stock.InitialValue
	hedgeValue := cfg.Hedge.InitialValue
	marginBalance := cfg.Margin.InitialBalance
	marginMonthlyRate := cfg.Margin.AnnualRate.Div(twelve)

	totalDividends := decimal.Zero
	maxDrawdown := decimal.Zero
	peakTotalValue := decimal.Zero
	marginCallTriggered := false
	backstopUsed := false
	backstopAmountUsed := decimal.Zero

	months := cfg.HorizonMonths
	result := &ScenarioResult{
		ScenarioID:       scenarioID,
		Regime:           returns.Regime,
		MonthlyPortfolio: make([]decimal.Decimal, 0, months),
		MonthlyGrowth:    make([]decimal.Decimal, 0, months),
		MonthlyIncome:    make([]decimal.Decimal, 0, months),
		MonthlyStock:     make([]decimal.Decimal, 0, months),
		MonthlyHedge:     make([]decimal.Decimal, 0, months),
		MonthlyMargin:    make([]decimal.Decimal, 0, months),
		MonthlyDividends: make([]decimal.Decimal, 0, months),
	}

	for month := 1; month <= months; month++ {
		// 1. Deploy new capital. The growth sleeve is closed to new money.
		incomeValue = incomeValue.Add(cfg.Income.MonthlyDeployment)
		stockValue = stockValue.Add(cfg.Stock.MonthlyDeployment)
		hedgeValue = hedgeValue.Add(cfg.Hedge.MonthlyDeployment)

		// 2. Apply returns, flooring every position at zero.
		growthValue = applyReturn(growthValue, returns.Growth[month-1])
		incomeValue = applyReturn(incomeValue, weightedIncomeReturn(cfg, returns.Buckets[month-1]))
		stockValue = applyReturn(stockValue, returns.Stock[month-1])
		hedgeValue = applyReturn(hedgeValue, returns.Hedge[month-1])

		// 3. Total portfolio value after this month's returns; the margin
		// safety check below is measured against this total.
		totalValue := growthValue.Add(incomeValue).Add(stockValue).Add(hedgeValue)

		// 4. Dividend income. Only the income sleeve distributes cash.
		currentYield := MonthlyYield(cfg, month)
		dividend := incomeValue.Mul(currentYield).Div(twelve)
		totalDividends = totalDividends.Add(dividend)

		// 5. Margin draw: borrow the shortfall, or pay down with the excess.
		draw := cfg.Margin.DrawForMonth(month)
		if dividend.LessThan(draw) {
			marginBalance = marginBalance.Add(draw.Sub(dividend))
		} else {
			marginBalance = decimal.Max(decimal.Zero, marginBalance.Sub(dividend.Sub(draw)))
		}

		// 6. Margin interest.
		if marginBalance.IsPositive() {
			marginBalance = marginBalance.Add(marginBalance.Mul(marginMonthlyRate))
		}

		// 7. Safety check: cure a ratio breach with a capped injection.
		if marginBalance.IsPositive() {
			ratio := totalValue.Div(marginBalance)
			if ratio.LessThan(cfg.Margin.MinPortfolioRatio) {
				marginCallTriggered = true
				backstopUsed = true
				injection := decimal.Min(cfg.Margin.BackstopCap, marginBalance)
				marginBalance = marginBalance.Sub(injection)
				backstopAmountUsed = backstopAmountUsed.Add(injection)
			}
		}

		// 8. Drawdown tracking against the running peak.
		if peakTotalValue.IsPositive() {
			drawdown := totalValue.Sub(peakTotalValue).Div(peakTotalValue)
			if drawdown.LessThan(maxDrawdown) {
				maxDrawdown = drawdown
			}
		}
		peakTotalValue = decimal.Max(peakTotalValue, totalValue)

		// 9. Record the month.
		result.MonthlyPortfolio = append(result.MonthlyPortfolio, totalValue)
		result.MonthlyGrowth = append(result.MonthlyGrowth, growthValue)
		result.MonthlyIncome = append(result.MonthlyIncome, incomeValue)
		result.MonthlyStock = append(result.MonthlyStock, stockValue)
		result.MonthlyHedge = append(result.MonthlyHedge, hedgeValue)
		result.MonthlyMargin = append(result.MonthlyMargin, marginBalance)
		result.MonthlyDividends = append(result.MonthlyDividends, dividend)
	}

	result.FinalGrowthValue = growthValue
	result.FinalIncomeValue = incomeValue
	result.FinalStockValue = stockValue
	result.FinalHedgeValue = hedgeValue
	result.FinalPortfolioValue = growthValue.Add(incomeValue).Add(stockValue).Add(hedgeValue)
	result.FinalMarginBalance = marginBalance
	result.FinalAnnualDividend = result.MonthlyDividends[months-1].Mul(twelve)
	result.TotalDividendsCollected = totalDividends
	result.MaxDrawdown = maxDrawdown
	result.MarginCallTriggered = marginCallTriggered
	result.BackstopUsed = backstopUsed
	result.BackstopAmountUsed = backstopAmountUsed

	if marginBalance.IsPositive() {
		ratio := result.FinalPortfolioValue.Div(marginBalance)
		result.FinalMarginRatio = &ratio
	}

	// Break-even: first month whose dividend covers the scheduled draw.
	for i, dividend := range result.MonthlyDividends {
		if dividend.GreaterThanOrEqual(cfg.Margin.DrawForMonth(i + 1)) {
			month := i + 1
			result.BreakEvenMonth = &month
			break
		}
	}

	// Margin payoff: first month after month 1 with a zero balance.
	for i, balance := range result.MonthlyMargin {
		if i > 0 && balance.IsZero() {
			month := i + 1
			result.MarginPayoffMonth = &month
			break
		}
	}

	return result
}

// applyReturn grows a position by a simple monthly return, floored at zero.
func applyReturn(value decimal.Decimal, ret float64) decimal.Decimal {
	if !value.IsPositive() {
		return value
	}
	value = value.Mul(one.Add(decimal.NewFromFloat(ret)))
	return decimal.Max(decimal.Zero, value)
}

// weightedIncomeReturn blends the bucket returns by allocation weight.
func weightedIncomeReturn(cfg *domain.SimulationConfig, bucketReturns []float64) float64 {
	weighted := decimal.Zero
	for i, b := range cfg.Income.Buckets {
		weighted = weighted.Add(b.Allocation.Mul(decimal.NewFromFloat(bucketReturns[i])))
	}
	return weighted.InexactFloat64()
}
