package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseSettingsYAML parses Settings from YAML bytes on top of DefaultSettings
// and validates the result. Keys absent from data keep their default values.
func ParseSettingsYAML(data []byte) (*Settings, error) {
	cfg := DefaultSettings()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse settings yaml: %w", err)
	}

	if err := validateSettings(cfg); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return cfg, nil
}

// ParseSettingsYAMLString parses Settings from a YAML string and validates it.
func ParseSettingsYAMLString(yamlText string) (*Settings, error) {
	return ParseSettingsYAML([]byte(yamlText))
}
