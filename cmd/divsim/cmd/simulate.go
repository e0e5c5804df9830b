package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/divsim/divsim/internal/calculation"
	"github.com/divsim/divsim/internal/config"
	"github.com/divsim/divsim/internal/output"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the Monte Carlo simulation",
	Long: `Run the dividend/margin Monte Carlo simulation and print a summary
report. Without --config the built-in reference configuration is used.

Example:
  divsim simulate --config strategy.yaml --scenarios 10000 --format console
  divsim simulate --seed 42 --csv-dir ./results`,
	RunE: runSimulate,
}

var (
	simulateConfigPath string
	simulateScenarios  int
	simulateSeed       int64
	simulateFormat     string
	simulateCSVDir     string
	simulateSave       bool
	simulateVerbose    bool
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateConfigPath, "config", "f", "", "path to YAML config (defaults to the built-in reference config)")
	simulateCmd.Flags().IntVarP(&simulateScenarios, "scenarios", "n", 0, "override the number of scenarios")
	simulateCmd.Flags().Int64Var(&simulateSeed, "seed", 0, "random seed (0 picks one from the clock)")
	simulateCmd.Flags().StringVar(&simulateFormat, "format", "console", "report format: console or json")
	simulateCmd.Flags().StringVar(&simulateCSVDir, "csv-dir", "", "also write scenario and summary CSVs to this directory")
	simulateCmd.Flags().BoolVar(&simulateSave, "save", false, "also save the report to a timestamped file in the working directory")
	simulateCmd.Flags().BoolVarP(&simulateVerbose, "verbose", "v", false, "log simulation progress to stderr")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	parser := config.NewInputParser()

	cfg := parser.CreateExampleConfiguration()
	if simulateConfigPath != "" {
		loaded, err := parser.LoadFromFile(simulateConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if simulateScenarios > 0 {
		cfg.ScenarioCount = simulateScenarios
	}
	if simulateSeed != 0 {
		cfg.Seed = simulateSeed
	}

	engine, err := calculation.NewEngine(cfg)
	if err != nil {
		return err
	}
	if simulateVerbose {
		engine.SetLogger(stderrLogger{})
	}

	result, err := engine.Run()
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	formatter := output.GetFormatterByName(simulateFormat)
	if formatter == nil {
		return fmt.Errorf("%w: %q, try one of: console, json", output.ErrUnsupportedFormat, simulateFormat)
	}
	data, err := formatter.Format(result.Summary)
	if err != nil {
		return fmt.Errorf("format report: %w", err)
	}
	if _, err := os.Stdout.Write(data); err != nil {
		return err
	}
	fmt.Println()

	if simulateSave {
		ext := "txt"
		if formatter.Name() == "json" {
			ext = "json"
		}
		path, err := output.WriteFormatted(formatter, result.Summary, ext)
		if err != nil {
			return fmt.Errorf("save report: %w", err)
		}
		fmt.Printf("Report saved to %s\n", path)
	}

	if simulateCSVDir != "" {
		report := &output.SimulationCSVReport{Result: result}
		if err := report.GenerateAllCSVReports(simulateCSVDir); err != nil {
			return fmt.Errorf("write CSV reports: %w", err)
		}
		fmt.Printf("CSV reports written to %s\n", simulateCSVDir)
	}

	return nil
}

// stderrLogger adapts the standard log package to the engine's Logger.
type stderrLogger struct{}

func (stderrLogger) Debugf(format string, args ...any) { log.Printf("DEBUG "+format, args...) }
func (stderrLogger) Infof(format string, args ...any)  { log.Printf("INFO "+format, args...) }
func (stderrLogger) Warnf(format string, args ...any)  { log.Printf("WARN "+format, args...) }
func (stderrLogger) Errorf(format string, args ...any) { log.Printf("ERROR "+format, args...) }
