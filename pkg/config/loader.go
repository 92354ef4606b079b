package config

import (
	"fmt"
	"math"
	"os"

	"github.com/GoSim-25-26J-441/forward-optimizer/pkg/logger"
)

// LoadVariables loads and parses a variables file
func LoadVariables(path string, order ModelOrder) ([]ModelConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file %s: %w", path, err)
	}
	defer f.Close()

	models, err := ParseVariables(f, order)
	if err != nil {
		return nil, fmt.Errorf("failed to parse variables file %s: %w", path, err)
	}
	return models, nil
}

// LoadSettings loads and parses a settings file. An empty path yields DefaultSettings.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return DefaultSettings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}
	cfg, err := ParseSettingsYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate re-checks settings after command-line overrides were applied.
func (s *Settings) Validate() error {
	return validateSettings(s)
}

// validateSettings performs validation on the run settings
func validateSettings(cfg *Settings) error {
	if !logger.ValidLevel(cfg.LogLevel) {
		return &ConfigError{Column: "log_level", Reason: fmt.Sprintf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)}
	}
	cfg.LogLevel = logger.LevelName(cfg.LogLevel)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return &ConfigError{Column: "log_format", Reason: fmt.Sprintf("invalid log_format: %s (must be text or json)", cfg.LogFormat)}
	}

	if err := validateMinimizer(&cfg.Minimizer); err != nil {
		return err
	}
	if err := validateDriver(&cfg.Driver); err != nil {
		return err
	}

	names := make(map[string]bool)
	for i := range cfg.Models {
		m := &cfg.Models[i]
		if m.Name == "" {
			return &ConfigError{Column: "models", Reason: fmt.Sprintf("model %d: name cannot be empty", i)}
		}
		if names[m.Name] {
			return &ConfigError{Column: "models", Reason: fmt.Sprintf("duplicate model name: %s", m.Name)}
		}
		names[m.Name] = true
		if err := validateModel(m); err != nil {
			return err
		}
	}

	return nil
}

// validateMinimizer validates the minimizer tolerances
func validateMinimizer(m *MinimizerSettings) error {
	if m.XAtol <= 0 || math.IsNaN(m.XAtol) || math.IsInf(m.XAtol, 0) {
		return &ConfigError{Column: "minimizer.xatol", Reason: fmt.Sprintf("xatol must be a positive number, got %g", m.XAtol)}
	}
	if m.MaxIter <= 0 {
		return &ConfigError{Column: "minimizer.max_iter", Reason: fmt.Sprintf("max_iter must be positive, got %d", m.MaxIter)}
	}
	return nil
}

// validateDriver validates scheduling, timeout and retry configuration
func validateDriver(d *DriverSettings) error {
	if _, err := ParseModelOrder(d.ModelOrder); err != nil {
		return &ConfigError{Column: "driver.model_order", Reason: err.Error()}
	}
	if d.ParallelModels < 1 {
		return &ConfigError{Column: "driver.parallel_models", Reason: fmt.Sprintf("parallel_models must be at least 1, got %d", d.ParallelModels)}
	}
	if _, err := d.GetEvalTimeout(); err != nil {
		return &ConfigError{Column: "driver.eval_timeout", Reason: fmt.Sprintf("invalid eval_timeout %s: %v", d.EvalTimeout, err)}
	}

	if r := d.Retries; r != nil {
		if r.MaxRetries < 0 {
			return &ConfigError{Column: "driver.retries", Reason: fmt.Sprintf("max_retries cannot be negative, got %d", r.MaxRetries)}
		}
		validBackoffs := map[string]bool{
			"exponential": true,
			"linear":      true,
			"constant":    true,
		}
		if !validBackoffs[r.Backoff] {
			return &ConfigError{Column: "driver.retries", Reason: fmt.Sprintf("invalid backoff type: %s (must be exponential, linear, or constant)", r.Backoff)}
		}
		if r.BaseMs < 0 || r.MaxMs < 0 {
			return &ConfigError{Column: "driver.retries", Reason: "base_ms and max_ms cannot be negative"}
		}
	}
	return nil
}

// validateModel validates a single model declaration
func validateModel(m *ModelSettings) error {
	if m.AdapterKind() == "command" && m.Command == "" {
		return &ConfigError{Column: "models", Reason: fmt.Sprintf("model %s: command is required for kind command", m.Name)}
	}
	if _, err := m.GetTimeout(); err != nil {
		return &ConfigError{Column: "models", Reason: fmt.Sprintf("model %s: invalid timeout %s: %v", m.Name, m.Timeout, err)}
	}
	return nil
}
