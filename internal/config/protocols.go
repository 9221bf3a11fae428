package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ProtocolOverride adjusts one conflict protocol's construction
// parameters from the project config.
type ProtocolOverride struct {
	// MaxIterations replaces the protocol's resolution bound when set.
	// Zero is legal and means instant escalation.
	MaxIterations *int `yaml:"max_iterations"`
	// Keywords are extra trigger keywords merged into the protocol's
	// built-in set. Only keyword-driven protocols accept them.
	Keywords []string `yaml:"keywords"`
}

// ProtocolOverrides maps protocol IDs to their overrides.
type ProtocolOverrides map[string]ProtocolOverride

// witanConfig represents the protocols section of a .witan.yaml file.
type witanConfig struct {
	Protocols ProtocolOverrides `yaml:"protocols"`
}

// LoadProtocolOverrides reads per-protocol overrides from the protocols
// section of a .witan.yaml file. A missing file or an absent section
// yields an empty set; a malformed section or a negative bound is an
// error so a bad config fails at startup rather than mid-deliberation.
func LoadProtocolOverrides(configPath string) (ProtocolOverrides, error) {
	if configPath == "" {
		return ProtocolOverrides{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ProtocolOverrides{}, nil
		}
		return nil, err
	}

	var cfg witanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}
	if cfg.Protocols == nil {
		return ProtocolOverrides{}, nil
	}

	for id, ov := range cfg.Protocols {
		if ov.MaxIterations != nil && *ov.MaxIterations < 0 {
			return nil, fmt.Errorf("protocol %s: max_iterations must not be negative", id)
		}
	}

	return cfg.Protocols, nil
}
