package config

import (
	"fmt"
	"time"
)

// VariableSpec is one row of the variables file: a scalar input of a forward
// model together with the closed interval it is searched over.
type VariableSpec struct {
	Model string
	Input string
	Low   float64
	High  float64
	File  string // optional auxiliary file handed to the adapter
}

// ModelConfig groups the variables that belong to one forward model.
// Variables keep the order in which they appear in the source.
type ModelConfig struct {
	Model     string
	Variables []VariableSpec
}

// ModelOrder selects the order in which ModelConfig entries are returned.
type ModelOrder string

const (
	// ModelOrderFile keeps models in order of first occurrence in the source.
	ModelOrderFile ModelOrder = "file"
	// ModelOrderSorted sorts models lexicographically by name.
	ModelOrderSorted ModelOrder = "sorted"
)

// ParseModelOrder converts a user supplied string into a ModelOrder.
// The empty string selects ModelOrderFile.
func ParseModelOrder(s string) (ModelOrder, error) {
	switch ModelOrder(s) {
	case "", ModelOrderFile:
		return ModelOrderFile, nil
	case ModelOrderSorted:
		return ModelOrderSorted, nil
	}
	return "", fmt.Errorf("invalid model order %q (must be file or sorted)", s)
}

// Settings holds everything about a run that is not part of the variables file.
type Settings struct {
	LogLevel  string            `yaml:"log_level"`
	LogFormat string            `yaml:"log_format"`
	Minimizer MinimizerSettings `yaml:"minimizer"`
	Driver    DriverSettings    `yaml:"driver"`
	Models    []ModelSettings   `yaml:"models,omitempty"`
}

// MinimizerSettings configures the bounded scalar minimizer
type MinimizerSettings struct {
	XAtol   float64 `yaml:"xatol"`
	MaxIter int     `yaml:"max_iter"`
}

// DriverSettings configures how models and variables are scheduled
type DriverSettings struct {
	ModelOrder     string       `yaml:"model_order"`
	ParallelModels int          `yaml:"parallel_models"`
	EvalTimeout    string       `yaml:"eval_timeout"` // e.g. "30m"; "0" disables the limit
	Retries        *RetryPolicy `yaml:"retries,omitempty"`
}

// RetryPolicy represents retry configuration for failed model evaluations
type RetryPolicy struct {
	Enabled    bool   `yaml:"enabled"`
	MaxRetries int    `yaml:"max_retries"`
	Backoff    string `yaml:"backoff"` // exponential, linear, constant
	BaseMs     int    `yaml:"base_ms"`
	MaxMs      int    `yaml:"max_ms"`
}

// ModelSettings declares or customizes a forward model adapter.
//
// Kind names the adapter implementation. It defaults to Name, which lets a
// settings file tune a built-in adapter without renaming it. Kind "command"
// runs an external process for every evaluation.
type ModelSettings struct {
	Name       string            `yaml:"name"`
	Kind       string            `yaml:"kind,omitempty"`
	Command    string            `yaml:"command,omitempty"`
	Args       []string          `yaml:"args,omitempty"`
	WorkDir    string            `yaml:"workdir,omitempty"`
	Env        map[string]string `yaml:"env,omitempty"`
	InputFile  string            `yaml:"input_file,omitempty"`
	OutputFile string            `yaml:"output_file,omitempty"`
	Timeout    string            `yaml:"timeout,omitempty"`
	Options    map[string]string `yaml:"options,omitempty"`
}

// DefaultSettings returns the settings used when no settings file is given.
func DefaultSettings() *Settings {
	return &Settings{
		LogLevel:  "info",
		LogFormat: "text",
		Minimizer: MinimizerSettings{
			XAtol:   1e-5,
			MaxIter: 500,
		},
		Driver: DriverSettings{
			ModelOrder:     string(ModelOrderFile),
			ParallelModels: 1,
			EvalTimeout:    "30m",
		},
	}
}

// GetEvalTimeout parses the per-evaluation timeout. Zero means no limit.
func (d *DriverSettings) GetEvalTimeout() (time.Duration, error) {
	return parseOptionalDuration(d.EvalTimeout)
}

// GetTimeout parses the model specific timeout. Zero means "use the driver default".
func (m *ModelSettings) GetTimeout() (time.Duration, error) {
	return parseOptionalDuration(m.Timeout)
}

// AdapterKind returns the adapter implementation name for this model.
func (m *ModelSettings) AdapterKind() string {
	if m.Kind != "" {
		return m.Kind
	}
	return m.Name
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", s)
	}
	return d, nil
}
