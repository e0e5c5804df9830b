package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/divsim/divsim/internal/calculation"
	"github.com/shopspring/decimal"
)

// SimulationCSVReport generates CSV exports for a simulation run: one
// row-per-scenario table and one aggregate summary table.
type SimulationCSVReport struct {
	Result *calculation.SimulationResult
}

// GenerateScenarioCSV writes the per-scenario terminal record table.
// Monthly time series are excluded; they belong to chart producers.
func (s *SimulationCSVReport) GenerateScenarioCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"scenario_id",
		"regime",
		"final_portfolio_value",
		"final_growth_value",
		"final_income_value",
		"final_stock_value",
		"final_hedge_value",
		"final_margin_balance",
		"final_margin_ratio",
		"final_annual_dividend",
		"max_drawdown",
		"margin_call_triggered",
		"backstop_used",
		"backstop_amount_used",
		"break_even_month",
		"margin_payoff_month",
		"total_dividends_collected",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range s.Result.Scenarios {
		row := []string{
			strconv.Itoa(r.ScenarioID),
			r.Regime,
			r.FinalPortfolioValue.StringFixed(2),
			r.FinalGrowthValue.StringFixed(2),
			r.FinalIncomeValue.StringFixed(2),
			r.FinalStockValue.StringFixed(2),
			r.FinalHedgeValue.StringFixed(2),
			r.FinalMarginBalance.StringFixed(2),
			formatRatioCell(r.FinalMarginRatio),
			r.FinalAnnualDividend.StringFixed(2),
			r.MaxDrawdown.StringFixed(6),
			strconv.FormatBool(r.MarginCallTriggered),
			strconv.FormatBool(r.BackstopUsed),
			r.BackstopAmountUsed.StringFixed(2),
			formatMonthCell(r.BreakEvenMonth),
			formatMonthCell(r.MarginPayoffMonth),
			r.TotalDividendsCollected.StringFixed(2),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write scenario row: %w", err)
		}
	}

	return nil
}

// GenerateSummaryCSV writes the aggregate statistics as metric rows.
func (s *SimulationCSVReport) GenerateSummaryCSV(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value", "Description"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	summary := s.Result.Summary
	rows := [][]string{
		{"Scenarios", strconv.Itoa(summary.ScenarioCount), "Number of scenarios simulated"},
		{"Probability $100k Income", FormatPercent(summary.Success.Probability100kIncome), "Scenarios ending with $100k+ annual dividend run-rate"},
		{"Probability $75k Income", FormatPercent(summary.Success.Probability75kIncome), "Scenarios ending with $75k+ annual dividend run-rate"},
		{"Probability $50k Income", FormatPercent(summary.Success.Probability50kIncome), "Scenarios ending with $50k+ annual dividend run-rate"},
		{"Probability Margin-Free", FormatPercent(summary.Success.ProbabilityMarginFree), "Scenarios ending with zero margin balance"},
		{"Margin Call Rate", FormatPercent(summary.Success.MarginCallRate), "Scenarios that breached the minimum portfolio:margin ratio"},
		{"Backstop Usage Rate", FormatPercent(summary.Success.BackstopUsageRate), "Scenarios that drew on the business-income backstop"},
		{"Average Backstop Amount", FormatCurrency(summary.Success.AvgBackstopAmount), "Mean backstop injection when used"},
		{"Median Portfolio Value", FormatCurrency(summary.PortfolioValue.Median), "Median total portfolio value at horizon"},
		{"Median Annual Dividend", FormatCurrency(summary.DividendIncome.Median), "Median annual dividend run-rate at horizon"},
		{"Median Margin Balance", FormatCurrency(summary.MarginBalance.Median), "Median margin balance at horizon"},
		{"Median Max Drawdown", FormatPercent(summary.Drawdown.Median), "Median of per-scenario worst drawdowns"},
		{"Break-Even Probability", FormatPercent(summary.BreakEvenTiming.Probability), "Scenarios where dividends covered the scheduled draw"},
		{"Margin Payoff Probability", FormatPercent(summary.MarginPayoffTiming.Probability), "Scenarios that fully paid off margin"},
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write data row: %w", err)
		}
	}

	return nil
}

// GenerateAllCSVReports creates all CSV reports in a single directory.
func (s *SimulationCSVReport) GenerateAllCSVReports(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := s.GenerateScenarioCSV(filepath.Join(outputDir, "simulation_scenarios.csv")); err != nil {
		return fmt.Errorf("failed to generate scenario CSV: %w", err)
	}
	if err := s.GenerateSummaryCSV(filepath.Join(outputDir, "simulation_summary.csv")); err != nil {
		return fmt.Errorf("failed to generate summary CSV: %w", err)
	}

	return nil
}

// formatRatioCell renders a final margin ratio, "inf" for margin-free scenarios.
func formatRatioCell(ratio *decimal.Decimal) string {
	if ratio == nil {
		return "inf"
	}
	return ratio.StringFixed(4)
}

func formatMonthCell(month *int) string {
	if month == nil {
		return ""
	}
	return strconv.Itoa(*month)
}
