// Package config handles configuration loading and management for Witan.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/witanworks/witan/pkg/models"
)

// Config holds all configuration for Witan.
type Config struct {
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	AWS          AWSConfig          `mapstructure:"aws"`
	Defaults     DefaultsConfig     `mapstructure:"defaults"`
	TUI          TUIConfig          `mapstructure:"tui"`
	Deliberation DeliberationConfig `mapstructure:"deliberation"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// AWSConfig holds AWS Bedrock routing settings. When UseBedrock is set
// the Anthropic API key is not required; credentials come from the
// standard AWS chain.
type AWSConfig struct {
	UseBedrock bool   `mapstructure:"use_bedrock"`
	Region     string `mapstructure:"region"`
	Profile    string `mapstructure:"profile"`
}

// DefaultsConfig holds default values for Witan deliberations.
type DefaultsConfig struct {
	Tier     string `mapstructure:"tier"`
	Headless bool   `mapstructure:"headless"`
}

// TUIConfig holds TUI display settings.
type TUIConfig struct {
	RefreshRate time.Duration `mapstructure:"refresh_rate"`
}

// DeliberationConfig holds session-level timing and retention settings.
type DeliberationConfig struct {
	// EscalationTimeout bounds how long a deliberation waits for a
	// human answer before falling back to the conservative default.
	EscalationTimeout time.Duration `mapstructure:"escalation_timeout"`
	// ConsultTimeout bounds a single member consultation.
	ConsultTimeout time.Duration `mapstructure:"consult_timeout"`
	// RetentionDays controls how long decided deliberations stay in
	// the history database before purge removes them.
	RetentionDays int `mapstructure:"retention_days"`
}

// TierConfig holds configuration for a single consultation tier loaded
// from YAML.
type TierConfig struct {
	// Tier is the tier name (brief, council, plenary).
	Tier string `mapstructure:"tier"`
	// PrimaryModel is the model members answer with by default.
	PrimaryModel string `mapstructure:"primary_model"`
	// FallbackModel is tried once when the primary call fails.
	FallbackModel string `mapstructure:"fallback_model"`
	// MaxTokens bounds a single member reply.
	MaxTokens int64 `mapstructure:"max_tokens"`
	// ConsultTimeout is the per-consultation timeout.
	ConsultTimeout time.Duration `mapstructure:"consult_timeout"`
	// Quorum is the minimum number of member responses needed before
	// detection proceeds; below it the deliberation aborts.
	Quorum int `mapstructure:"quorum"`
}

// TierConfigs holds all tier configurations.
type TierConfigs struct {
	Brief   *TierConfig
	Council *TierConfig
	Plenary *TierConfig
}

// Get returns the tier config for the given tier.
func (tc *TierConfigs) Get(tier models.Tier) *TierConfig {
	switch tier {
	case models.TierBrief:
		return tc.Brief
	case models.TierCouncil:
		return tc.Council
	case models.TierPlenary:
		return tc.Plenary
	default:
		return tc.Council // Default to council
	}
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, WITAN_TIER)
// 2. Project config (.witan.yaml in current directory or parent)
// 3. User config (~/.config/witan/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("")

	// Map specific environment variables
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("defaults.tier", "WITAN_TIER")
	v.BindEnv("aws.use_bedrock", "WITAN_USE_BEDROCK")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("aws.use_bedrock", cfg.AWS.UseBedrock)
	v.Set("aws.region", cfg.AWS.Region)
	v.Set("aws.profile", cfg.AWS.Profile)
	v.Set("defaults.tier", cfg.Defaults.Tier)
	v.Set("defaults.headless", cfg.Defaults.Headless)
	v.Set("tui.refresh_rate", cfg.TUI.RefreshRate.String())
	v.Set("deliberation.escalation_timeout", cfg.Deliberation.EscalationTimeout.String())
	v.Set("deliberation.consult_timeout", cfg.Deliberation.ConsultTimeout.String())
	v.Set("deliberation.retention_days", cfg.Deliberation.RetentionDays)

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")

	// AWS defaults
	v.SetDefault("aws.use_bedrock", false)
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.profile", "")

	// Deliberation defaults
	v.SetDefault("defaults.tier", "council")
	v.SetDefault("defaults.headless", false)

	// TUI defaults
	v.SetDefault("tui.refresh_rate", "100ms")

	// Timing and retention defaults
	v.SetDefault("deliberation.escalation_timeout", "10m")
	v.SetDefault("deliberation.consult_timeout", "2m")
	v.SetDefault("deliberation.retention_days", 30)
}

// getUserConfigDir returns the XDG config directory for Witan.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "witan")
	}

	// Fall back to ~/.config/witan
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "witan")
	}
	return filepath.Join(home, ".config", "witan")
}

// findProjectConfig searches for .witan.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".witan.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{
			APIKey: "",
		},
		AWS: AWSConfig{
			UseBedrock: false,
		},
		Defaults: DefaultsConfig{
			Tier:     "council",
			Headless: false,
		},
		TUI: TUIConfig{
			RefreshRate: 100 * time.Millisecond,
		},
		Deliberation: DeliberationConfig{
			EscalationTimeout: 10 * time.Minute,
			ConsultTimeout:    2 * time.Minute,
			RetentionDays:     30,
		},
	}
}

// LoadTierConfigs loads tier configurations from the configs/ directory.
// It looks for brief.yaml, council.yaml, and plenary.yaml.
// The configsDir parameter specifies the directory containing the YAML files.
// If configsDir is empty, it defaults to "configs" relative to the current directory.
func LoadTierConfigs(configsDir string) (*TierConfigs, error) {
	if configsDir == "" {
		configsDir = "configs"
	}

	tiers := &TierConfigs{}

	// Load brief config
	briefPath := filepath.Join(configsDir, "brief.yaml")
	briefCfg, err := loadTierConfig(briefPath)
	if err != nil {
		return nil, fmt.Errorf("load brief config: %w", err)
	}
	tiers.Brief = briefCfg

	// Load council config
	councilPath := filepath.Join(configsDir, "council.yaml")
	councilCfg, err := loadTierConfig(councilPath)
	if err != nil {
		return nil, fmt.Errorf("load council config: %w", err)
	}
	tiers.Council = councilCfg

	// Load plenary config
	plenaryPath := filepath.Join(configsDir, "plenary.yaml")
	plenaryCfg, err := loadTierConfig(plenaryPath)
	if err != nil {
		return nil, fmt.Errorf("load plenary config: %w", err)
	}
	tiers.Plenary = plenaryCfg

	return tiers, nil
}

// loadTierConfig loads a single tier configuration from a YAML file.
func loadTierConfig(path string) (*TierConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &TierConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}

	return cfg, nil
}

// DefaultTierConfigs returns hardcoded default tier configurations.
// This is used as a fallback when YAML files are not available.
func DefaultTierConfigs() *TierConfigs {
	return &TierConfigs{
		Brief: &TierConfig{
			Tier:           "brief",
			PrimaryModel:   "haiku",
			FallbackModel:  "",
			MaxTokens:      1024,
			ConsultTimeout: 1 * time.Minute,
			Quorum:         5,
		},
		Council: &TierConfig{
			Tier:           "council",
			PrimaryModel:   "sonnet",
			FallbackModel:  "haiku",
			MaxTokens:      2048,
			ConsultTimeout: 2 * time.Minute,
			Quorum:         6,
		},
		Plenary: &TierConfig{
			Tier:           "plenary",
			PrimaryModel:   "opus",
			FallbackModel:  "sonnet",
			MaxTokens:      4096,
			ConsultTimeout: 5 * time.Minute,
			Quorum:         8,
		},
	}
}
