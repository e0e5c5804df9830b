package output

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/divsim/divsim/internal/calculation"
	"github.com/divsim/divsim/internal/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallRunResult runs the reference strategy at a reduced scenario count so
// the output tests format real summaries.
func smallRunResult(t *testing.T) *calculation.SimulationResult {
	t.Helper()

	cfg := config.NewInputParser().CreateExampleConfiguration()
	cfg.ScenarioCount = 200
	cfg.Seed = 9

	engine, err := calculation.NewEngine(cfg)
	require.NoError(t, err)
	result, err := engine.Run()
	require.NoError(t, err)
	return result
}

func TestConsoleFormatterSections(t *testing.T) {
	result := smallRunResult(t)

	data, err := ConsoleFormatter{}.Format(result.Summary)
	require.NoError(t, err)

	report := string(data)
	for _, section := range []string{
		"MONTE CARLO SIMULATION RESULTS",
		"Scenarios Analyzed: 200",
		"Horizon: 28 months",
		"SUCCESS METRICS",
		"TOTAL PORTFOLIO VALUE AT MONTH 28",
		"PORTFOLIO COMPOSITION",
		"ANNUAL DIVIDEND INCOME",
		"MARGIN BALANCE",
		"MAXIMUM DRAWDOWN",
		"DISCLAIMER",
	} {
		assert.Contains(t, report, section)
	}
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	result := smallRunResult(t)

	data, err := JSONFormatter{}.Format(result.Summary)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.EqualValues(t, 200, decoded["n_scenarios"])
	assert.EqualValues(t, 28, decoded["horizon_months"])
	assert.Contains(t, decoded, "success_metrics")
	assert.Contains(t, decoded, "portfolio_value")
	assert.Contains(t, decoded, "break_even_timing")
}

func TestGetFormatterByName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"console", "console"},
		{"json", "json"},
		{"text", "console"},
		{"txt", "console"},
		{"json-pretty", "json"},
		{" Console ", "console"},
	}

	for _, tt := range tests {
		f := GetFormatterByName(tt.input)
		require.NotNil(t, f, "input %q", tt.input)
		assert.Equal(t, tt.expected, f.Name(), "input %q", tt.input)
	}

	assert.Nil(t, GetFormatterByName("xml"))
}

func TestAvailableFormatterNames(t *testing.T) {
	names := AvailableFormatterNames()
	assert.Contains(t, names, "console")
	assert.Contains(t, names, "json")
}

func TestWriteFormatted(t *testing.T) {
	result := smallRunResult(t)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer os.Chdir(wd)

	path, err := WriteFormatted(JSONFormatter{}, result.Summary, "json")
	require.NoError(t, err)
	assert.Contains(t, path, "simulation_report_")
	assert.True(t, strings.HasSuffix(path, ".json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "n_scenarios")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "$1235", FormatCurrency(decimal.NewFromFloat(1234.56)))
	assert.Equal(t, "12.5%", FormatPercent(decimal.NewFromFloat(0.125)))
	assert.Equal(t, "2.50:1", FormatRatio(decimal.NewFromFloat(2.5)))
}
