package config

import (
	"fmt"
	"os"

	"github.com/divsim/divsim/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of simulation configuration files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a simulation configuration from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.SimulationConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var config domain.SimulationConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// SaveToFile writes a configuration as YAML
func (ip *InputParser) SaveToFile(config *domain.SimulationConfig, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

// CreateExampleConfiguration returns the reference dividend/margin strategy
// configuration: a four-layer portfolio (growth, five income buckets, single
// stock, 3x inverse hedge) walked over 28 months with a stepped margin draw
// schedule.
func (ip *InputParser) CreateExampleConfiguration() *domain.SimulationConfig {
	return &domain.SimulationConfig{
		ScenarioCount:    10000,
		HorizonMonths:    28,
		MarketVolatility: decimal.NewFromFloat(0.16),
		Growth: domain.GrowthLayer{
			Beta:           decimal.NewFromFloat(1.2),
			ExpectedReturn: decimal.NewFromFloat(0.18),
			Volatility:     decimal.NewFromFloat(0.22),
			InitialValue:   decimal.NewFromInt(170073),
		},
		Income: domain.IncomeLayer{
			InitialValue:      decimal.NewFromInt(61725),
			MonthlyDeployment: decimal.NewFromInt(11517),
			Buckets: []domain.IncomeBucket{
				{Name: "jpmorgan_income", Allocation: decimal.NewFromFloat(0.27), AnnualYield: decimal.NewFromFloat(0.09), Volatility: decimal.NewFromFloat(0.069)},
				{Name: "cef_stable", Allocation: decimal.NewFromFloat(0.20), AnnualYield: decimal.NewFromFloat(0.21), Volatility: decimal.NewFromFloat(0.150)},
				{Name: "covered_call_etfs", Allocation: decimal.NewFromFloat(0.35), AnnualYield: decimal.NewFromFloat(0.16), Volatility: decimal.NewFromFloat(0.135)},
				{Name: "yieldmax", Allocation: decimal.NewFromFloat(0.10), AnnualYield: decimal.NewFromFloat(0.70), Volatility: decimal.NewFromFloat(0.450), FatTail: true},
				{Name: "drip_v2_cefs", Allocation: decimal.NewFromFloat(0.08), AnnualYield: decimal.NewFromFloat(0.09), Volatility: decimal.NewFromFloat(0.120)},
			},
		},
		Stock: domain.StockPosition{
			ExpectedReturn:    decimal.NewFromFloat(0.15),
			Volatility:        decimal.NewFromFloat(0.30),
			InitialValue:      decimal.NewFromInt(1876),
			MonthlyDeployment: decimal.NewFromInt(1000),
		},
		Hedge: domain.HedgeLayer{
			Leverage:          decimal.NewFromFloat(3.0),
			AnnualDecay:       decimal.NewFromFloat(0.02),
			InitialValue:      decimal.NewFromInt(13199),
			MonthlyDeployment: decimal.NewFromInt(800),
		},
		Margin: domain.MarginPolicy{
			InitialBalance:    decimal.NewFromInt(3222),
			AnnualRate:        decimal.NewFromFloat(0.11825),
			MinPortfolioRatio: decimal.NewFromFloat(3.0),
			BackstopCap:       decimal.NewFromInt(22000),
			Schedule: []domain.MarginWindow{
				{FromMonth: 1, ToMonth: 6, Amount: decimal.NewFromInt(4500)},
				{FromMonth: 7, ToMonth: 12, Amount: decimal.NewFromInt(6213)},
				{FromMonth: 13, ToMonth: 28, Amount: decimal.NewFromInt(8000)},
			},
		},
		Yield: domain.YieldPolicy{
			DegradationRate:  decimal.NewFromFloat(0.15),
			ActiveManagement: true,
			RecoveryTrigger:  decimal.NewFromFloat(0.15),
			RecoveryFraction: decimal.NewFromFloat(0.12),
		},
		Regimes: []domain.Regime{
			{Name: "bull", Probability: decimal.NewFromFloat(0.35), AnnualDrift: decimal.NewFromFloat(0.15), VolMultiplier: decimal.NewFromFloat(0.8)},
			{Name: "normal", Probability: decimal.NewFromFloat(0.40), AnnualDrift: decimal.NewFromFloat(0.08), VolMultiplier: decimal.NewFromFloat(1.0)},
			{Name: "bear", Probability: decimal.NewFromFloat(0.20), AnnualDrift: decimal.NewFromFloat(-0.15), VolMultiplier: decimal.NewFromFloat(1.5)},
			{Name: "crisis", Probability: decimal.NewFromFloat(0.05), AnnualDrift: decimal.NewFromFloat(-0.40), VolMultiplier: decimal.NewFromFloat(3.0)},
		},
	}
}
