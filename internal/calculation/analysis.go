package calculation

import (
	"github.com/divsim/divsim/internal/domain"
	"github.com/divsim/divsim/pkg/stats"
	"github.com/shopspring/decimal"
)

// Annual-income thresholds the success metrics are measured against.
var (
	incomeTarget100k = decimal.NewFromInt(100000)
	incomeTarget75k  = decimal.NewFromInt(75000)
	incomeTarget50k  = decimal.NewFromInt(50000)
)

// DistributionStats describes one terminal quantity's distribution across
// the scenario population.
type DistributionStats struct {
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
	P5     decimal.Decimal `json:"p5"`
	P25    decimal.Decimal `json:"p25"`
	P75    decimal.Decimal `json:"p75"`
	P95    decimal.Decimal `json:"p95"`
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
}

// SuccessMetrics are the sample proportions of scenarios clearing each
// strategy milestone, plus the mean backstop injection when one was used.
type SuccessMetrics struct {
	Probability100kIncome decimal.Decimal `json:"probability_100k_income"`
	Probability75kIncome  decimal.Decimal `json:"probability_75k_income"`
	Probability50kIncome  decimal.Decimal `json:"probability_50k_income"`
	ProbabilityMarginFree decimal.Decimal `json:"probability_margin_free"`
	MarginCallRate        decimal.Decimal `json:"margin_call_rate"`
	BackstopUsageRate     decimal.Decimal `json:"backstop_usage_rate"`
	AvgBackstopAmount     decimal.Decimal `json:"avg_backstop_amount"`
}

// MilestoneTiming describes when a milestone was reached, conditioned on the
// scenarios that reached it. The stat fields are nil when no scenario did.
type MilestoneTiming struct {
	Probability decimal.Decimal  `json:"probability"`
	Median      *decimal.Decimal `json:"median"`
	Mean        *decimal.Decimal `json:"mean"`
	P5          *decimal.Decimal `json:"p5"`
	P95         *decimal.Decimal `json:"p95"`
}

// SimulationSummary is the aggregate view of a full simulation batch.
// MarginRatio covers only scenarios that ended with margin outstanding (a
// margin-free scenario's ratio is infinite; the margin-free share is already
// reported as a success metric) and is nil when every scenario paid off.
type SimulationSummary struct {
	ScenarioCount int   `json:"n_scenarios"`
	HorizonMonths int   `json:"horizon_months"`
	Seed          int64 `json:"seed"`

	Success SuccessMetrics `json:"success_metrics"`

	PortfolioValue DistributionStats  `json:"portfolio_value"`
	GrowthLayer    DistributionStats  `json:"growth_layer"`
	IncomeLayer    DistributionStats  `json:"income_layer"`
	StockPosition  DistributionStats  `json:"stock_position"`
	HedgePosition  DistributionStats  `json:"hedge_position"`
	DividendIncome DistributionStats  `json:"dividend_income"`
	MarginBalance  DistributionStats  `json:"margin_balance"`
	MarginRatio    *DistributionStats `json:"margin_ratio,omitempty"`
	Drawdown       DistributionStats  `json:"drawdown"`

	BreakEvenTiming    MilestoneTiming `json:"break_even_timing"`
	MarginPayoffTiming MilestoneTiming `json:"margin_payoff_timing"`
}

// Summarize computes population statistics over the full scenario record
// set. It requires every scenario's result (a full barrier in the engine).
func Summarize(cfg *domain.SimulationConfig, results []*ScenarioResult, seed int64) *SimulationSummary {
	n := decimal.NewFromInt(int64(len(results)))

	var (
		portfolioValues []decimal.Decimal
		growthValues    []decimal.Decimal
		incomeValues    []decimal.Decimal
		stockValues     []decimal.Decimal
		hedgeValues     []decimal.Decimal
		dividends       []decimal.Decimal
		marginBalances  []decimal.Decimal
		marginRatios    []decimal.Decimal
		drawdowns       []decimal.Decimal
		breakEvens      []decimal.Decimal
		payoffs         []decimal.Decimal
		backstopAmounts []decimal.Decimal
	)

	count100k, count75k, count50k := 0, 0, 0
	marginFree, marginCalls, backstops := 0, 0, 0

	for _, r := range results {
		portfolioValues = append(portfolioValues, r.FinalPortfolioValue)
		growthValues = append(growthValues, r.FinalGrowthValue)
		incomeValues = append(incomeValues, r.FinalIncomeValue)
		stockValues = append(stockValues, r.FinalStockValue)
		hedgeValues = append(hedgeValues, r.FinalHedgeValue)
		dividends = append(dividends, r.FinalAnnualDividend)
		marginBalances = append(marginBalances, r.FinalMarginBalance)
		drawdowns = append(drawdowns, r.MaxDrawdown)

		if r.FinalAnnualDividend.GreaterThanOrEqual(incomeTarget100k) {
			count100k++
		}
		if r.FinalAnnualDividend.GreaterThanOrEqual(incomeTarget75k) {
			count75k++
		}
		if r.FinalAnnualDividend.GreaterThanOrEqual(incomeTarget50k) {
			count50k++
		}
		if r.FinalMarginBalance.IsZero() {
			marginFree++
		}
		if r.MarginCallTriggered {
			marginCalls++
		}
		if r.BackstopUsed {
			backstops++
			backstopAmounts = append(backstopAmounts, r.BackstopAmountUsed)
		}
		if r.FinalMarginRatio != nil {
			marginRatios = append(marginRatios, *r.FinalMarginRatio)
		}
		if r.BreakEvenMonth != nil {
			breakEvens = append(breakEvens, decimal.NewFromInt(int64(*r.BreakEvenMonth)))
		}
		if r.MarginPayoffMonth != nil {
			payoffs = append(payoffs, decimal.NewFromInt(int64(*r.MarginPayoffMonth)))
		}
	}

	summary := &SimulationSummary{
		ScenarioCount: len(results),
		HorizonMonths: cfg.HorizonMonths,
		Seed:          seed,
		Success: SuccessMetrics{
			Probability100kIncome: proportion(count100k, n),
			Probability75kIncome:  proportion(count75k, n),
			Probability50kIncome:  proportion(count50k, n),
			ProbabilityMarginFree: proportion(marginFree, n),
			MarginCallRate:        proportion(marginCalls, n),
			BackstopUsageRate:     proportion(backstops, n),
			AvgBackstopAmount:     stats.Mean(backstopAmounts),
		},
		PortfolioValue:     describe(portfolioValues),
		GrowthLayer:        describe(growthValues),
		IncomeLayer:        describe(incomeValues),
		StockPosition:      describe(stockValues),
		HedgePosition:      describe(hedgeValues),
		DividendIncome:     describe(dividends),
		MarginBalance:      describe(marginBalances),
		Drawdown:           describe(drawdowns),
		BreakEvenTiming:    describeTiming(breakEvens, n),
		MarginPayoffTiming: describeTiming(payoffs, n),
	}

	if len(marginRatios) > 0 {
		ratioStats := describe(marginRatios)
		summary.MarginRatio = &ratioStats
	}

	return summary
}

func proportion(count int, n decimal.Decimal) decimal.Decimal {
	if n.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).Div(n)
}

func describe(values []decimal.Decimal) DistributionStats {
	sorted := stats.Sorted(values)
	return DistributionStats{
		Mean:   stats.Mean(values),
		Median: stats.PercentileSorted(sorted, 0.50),
		P5:     stats.PercentileSorted(sorted, 0.05),
		P25:    stats.PercentileSorted(sorted, 0.25),
		P75:    stats.PercentileSorted(sorted, 0.75),
		P95:    stats.PercentileSorted(sorted, 0.95),
		Min:    stats.Min(values),
		Max:    stats.Max(values),
	}
}

func describeTiming(months []decimal.Decimal, n decimal.Decimal) MilestoneTiming {
	timing := MilestoneTiming{Probability: proportion(len(months), n)}
	if len(months) == 0 {
		return timing
	}
	sorted := stats.Sorted(months)
	median := stats.PercentileSorted(sorted, 0.50)
	mean := stats.Mean(months)
	p5 := stats.PercentileSorted(sorted, 0.05)
	p95 := stats.PercentileSorted(sorted, 0.95)
	timing.Median = &median
	timing.Mean = &mean
	timing.P5 = &p5
	timing.P95 = &p95
	return timing
}
