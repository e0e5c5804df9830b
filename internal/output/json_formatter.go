package output

import (
	"encoding/json"

	"github.com/divsim/divsim/internal/calculation"
)

// JSONFormatter serializes the simulation summary as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(summary *calculation.SimulationSummary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}
