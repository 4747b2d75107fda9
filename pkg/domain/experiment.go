package domain

import (
	"fmt"
	"strings"
)

// Experiment describes a single lab exercise.
// It is fetched once from the backend and treated as immutable for the session.
type Experiment struct {
	ID           int      `json:"id" mapstructure:"id"`
	Name         string   `json:"name" mapstructure:"name"`
	Inputs       int      `json:"inputs" mapstructure:"inputs"`
	Outputs      int      `json:"outputs" mapstructure:"outputs"`
	InputLabels  []string `json:"input_labels,omitempty" mapstructure:"input_labels"`
	OutputLabels []string `json:"output_labels,omitempty" mapstructure:"output_labels"`
}

// WithDefaultLabels returns a copy with missing labels filled in.
// Inputs are named a, b, c... and outputs p, q, r...
func (e Experiment) WithDefaultLabels() Experiment {
	if len(e.InputLabels) == 0 && e.Inputs > 0 {
		e.InputLabels = letters('a', e.Inputs)
	}
	if len(e.OutputLabels) == 0 && e.Outputs > 0 {
		e.OutputLabels = letters('p', e.Outputs)
	}
	return e
}

// Validate checks that counts are sane and labels match them.
func (e Experiment) Validate() error {
	if e.Inputs < 0 || e.Outputs < 0 {
		return fmt.Errorf("experiment %d: %w", e.ID, ErrInvalidInputCount)
	}
	if len(e.InputLabels) != e.Inputs {
		return fmt.Errorf("experiment %d: %d input labels for %d inputs", e.ID, len(e.InputLabels), e.Inputs)
	}
	if len(e.OutputLabels) != e.Outputs {
		return fmt.Errorf("experiment %d: %d output labels for %d outputs", e.ID, len(e.OutputLabels), e.Outputs)
	}
	return nil
}

// Config derives the device configuration record for this experiment.
func (e Experiment) Config() ExperimentConfig {
	return ExperimentConfig{
		NumInputs:      e.Inputs,
		NumOutputs:     e.Outputs,
		NumExperiments: e.ID,
	}
}

func letters(start rune, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(start + rune(i%26))
		if i >= 26 {
			out[i] += fmt.Sprint(i / 26)
		}
	}
	return out
}

// ExperimentConfig arms the device for an experiment (POST /set_experiment).
type ExperimentConfig struct {
	NumInputs      int `json:"num_inputs"`
	NumOutputs     int `json:"num_outputs"`
	NumExperiments int `json:"num_experiments"`
}

// ModuleConfig arms the device for a module (POST /set_module).
type ModuleConfig struct {
	Module int `json:"module"`
}

// Submission is the persisted result of a completed experiment.
type Submission struct {
	ExperimentID int        `json:"experimentId"`
	TruthTable   [][]string `json:"truthTable"`
}

// Row is one input combination: a sequence of "0"/"1" bits, most significant first.
type Row []string

// String joins the bits, e.g. "0101".
func (r Row) String() string {
	return strings.Join(r, "")
}

// PairedRow joins an input combination with the device output for the same index.
type PairedRow struct {
	Index  int      `json:"index"`
	Input  Row      `json:"input"`
	Output []string `json:"output,omitempty"`
	// Complete is true when the output row exists and has the expected width.
	Complete bool `json:"complete"`
}
