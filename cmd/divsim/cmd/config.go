package cmd

import (
	"fmt"

	"github.com/divsim/divsim/internal/config"
	"github.com/divsim/divsim/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the reference configuration to a YAML file",
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE:  runConfigValidate,
}

var (
	configInitOutput   string
	configValidatePath string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "divsim.yaml", "output path for the example config")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "config", "f", "", "path to config file (required)")
	configValidateCmd.MarkFlagRequired("config")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	parser := config.NewInputParser()
	cfg := parser.CreateExampleConfiguration()
	if err := parser.SaveToFile(cfg, configInitOutput); err != nil {
		return fmt.Errorf("write example config: %w", err)
	}
	fmt.Printf("Example configuration written to %s\n", configInitOutput)
	fmt.Printf("Blended target yield: %s\n", output.FormatPercent(cfg.BlendedTargetYield()))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	parser := config.NewInputParser()
	cfg, err := parser.LoadFromFile(configValidatePath)
	if err != nil {
		return err
	}
	fmt.Printf("%s is valid: %d scenarios over %d months, blended yield %s\n",
		configValidatePath, cfg.ScenarioCount, cfg.HorizonMonths, output.FormatPercent(cfg.BlendedTargetYield()))
	return nil
}
