package output

import (
	"fmt"
	"strings"

	"github.com/divsim/divsim/internal/calculation"
	"github.com/shopspring/decimal"
)

// ConsoleFormatter renders the simulation summary as a sectioned text report.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(summary *calculation.SimulationSummary) ([]byte, error) {
	var b strings.Builder

	rule := strings.Repeat("=", 80)
	sectionRule := strings.Repeat("-", 40)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "MONTE CARLO SIMULATION RESULTS")
	fmt.Fprintln(&b, "Dividend Income + Margin Strategy, 4-Layer Portfolio")
	fmt.Fprintln(&b, rule)
	fmt.Fprintf(&b, "\nScenarios Analyzed: %d\n", summary.ScenarioCount)
	fmt.Fprintf(&b, "Horizon: %d months\n", summary.HorizonMonths)
	fmt.Fprintf(&b, "Seed: %d\n", summary.Seed)

	fmt.Fprintf(&b, "\n%s\nSUCCESS METRICS\n%s\n", sectionRule, sectionRule)
	fmt.Fprintf(&b, "Probability of $100k+ Annual Income: %s\n", FormatPercent(summary.Success.Probability100kIncome))
	fmt.Fprintf(&b, "Probability of $75k+ Annual Income:  %s\n", FormatPercent(summary.Success.Probability75kIncome))
	fmt.Fprintf(&b, "Probability of $50k+ Annual Income:  %s\n", FormatPercent(summary.Success.Probability50kIncome))
	fmt.Fprintf(&b, "Probability of Margin-Free by Month %d: %s\n", summary.HorizonMonths, FormatPercent(summary.Success.ProbabilityMarginFree))
	fmt.Fprintf(&b, "Margin Call Rate: %s\n", FormatPercent(summary.Success.MarginCallRate))
	fmt.Fprintf(&b, "Backstop Usage Rate: %s\n", FormatPercent(summary.Success.BackstopUsageRate))
	if summary.Success.AvgBackstopAmount.IsPositive() {
		fmt.Fprintf(&b, "Average Backstop Amount: %s\n", FormatCurrency(summary.Success.AvgBackstopAmount))
	}

	fmt.Fprintf(&b, "\n%s\nTOTAL PORTFOLIO VALUE AT MONTH %d\n%s\n", sectionRule, summary.HorizonMonths, sectionRule)
	fmt.Fprintf(&b, "Median: %s\n", FormatCurrency(summary.PortfolioValue.Median))
	fmt.Fprintf(&b, "Mean: %s\n", FormatCurrency(summary.PortfolioValue.Mean))
	fmt.Fprintf(&b, "5th Percentile (Bear): %s\n", FormatCurrency(summary.PortfolioValue.P5))
	fmt.Fprintf(&b, "95th Percentile (Bull): %s\n", FormatCurrency(summary.PortfolioValue.P95))

	fmt.Fprintf(&b, "\n%s\nPORTFOLIO COMPOSITION (Median Values)\n%s\n", sectionRule, sectionRule)
	fmt.Fprintf(&b, "Growth Layer:     %s\n", FormatCurrency(summary.GrowthLayer.Median))
	fmt.Fprintf(&b, "Income Layer:     %s\n", FormatCurrency(summary.IncomeLayer.Median))
	fmt.Fprintf(&b, "Stock Position:   %s\n", FormatCurrency(summary.StockPosition.Median))
	fmt.Fprintf(&b, "Hedge Position:   %s\n", FormatCurrency(summary.HedgePosition.Median))

	fmt.Fprintf(&b, "\n%s\nANNUAL DIVIDEND INCOME\n%s\n", sectionRule, sectionRule)
	fmt.Fprintf(&b, "Median: %s\n", FormatCurrency(summary.DividendIncome.Median))
	fmt.Fprintf(&b, "Mean: %s\n", FormatCurrency(summary.DividendIncome.Mean))
	fmt.Fprintf(&b, "5th Percentile: %s\n", FormatCurrency(summary.DividendIncome.P5))
	fmt.Fprintf(&b, "25th Percentile: %s\n", FormatCurrency(summary.DividendIncome.P25))
	fmt.Fprintf(&b, "75th Percentile: %s\n", FormatCurrency(summary.DividendIncome.P75))
	fmt.Fprintf(&b, "95th Percentile: %s\n", FormatCurrency(summary.DividendIncome.P95))

	fmt.Fprintf(&b, "\n%s\nMARGIN BALANCE\n%s\n", sectionRule, sectionRule)
	fmt.Fprintf(&b, "Median: %s\n", FormatCurrency(summary.MarginBalance.Median))
	fmt.Fprintf(&b, "Mean: %s\n", FormatCurrency(summary.MarginBalance.Mean))
	fmt.Fprintf(&b, "Maximum: %s\n", FormatCurrency(summary.MarginBalance.Max))

	if summary.MarginRatio != nil {
		fmt.Fprintf(&b, "\n%s\nMARGIN RATIO (Leveraged Scenarios)\n%s\n", sectionRule, sectionRule)
		fmt.Fprintf(&b, "Median: %s\n", FormatRatio(summary.MarginRatio.Median))
		fmt.Fprintf(&b, "Mean: %s\n", FormatRatio(summary.MarginRatio.Mean))
		fmt.Fprintf(&b, "5th Percentile (Worst): %s\n", FormatRatio(summary.MarginRatio.P5))
		fmt.Fprintf(&b, "95th Percentile (Best): %s\n", FormatRatio(summary.MarginRatio.P95))
		fmt.Fprintf(&b, "Minimum Ratio: %s\n", FormatRatio(summary.MarginRatio.Min))
	}

	fmt.Fprintf(&b, "\n%s\nMAXIMUM DRAWDOWN\n%s\n", sectionRule, sectionRule)
	fmt.Fprintf(&b, "Median: %s\n", FormatPercent(summary.Drawdown.Median))
	fmt.Fprintf(&b, "5th Percentile: %s\n", FormatPercent(summary.Drawdown.P5))
	fmt.Fprintf(&b, "Worst Case: %s\n", FormatPercent(summary.Drawdown.Min))

	writeTimingSection(&b, sectionRule, "BREAK-EVEN TIMING", "reaching break-even", summary.BreakEvenTiming)
	writeTimingSection(&b, sectionRule, "MARGIN PAYOFF TIMING", "paying off margin", summary.MarginPayoffTiming)

	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintln(&b, "DISCLAIMER: This simulation is for educational purposes only.")
	fmt.Fprintln(&b, "Past performance does not guarantee future results.")
	fmt.Fprintln(&b, rule)

	return []byte(b.String()), nil
}

func writeTimingSection(b *strings.Builder, sectionRule, title, milestone string, timing calculation.MilestoneTiming) {
	if !timing.Probability.IsPositive() {
		return
	}
	fmt.Fprintf(b, "\n%s\n%s\n%s\n", sectionRule, title, sectionRule)
	fmt.Fprintf(b, "Probability of %s: %s\n", milestone, FormatPercent(timing.Probability))
	if timing.Median != nil {
		fmt.Fprintf(b, "Median: Month %s\n", timing.Median.Round(0))
		fmt.Fprintf(b, "5th-95th Percentile: Month %s - %s\n", roundMonth(timing.P5), roundMonth(timing.P95))
	}
}

func roundMonth(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.Round(0).String()
}
