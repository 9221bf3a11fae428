package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Witan configuration.

Without arguments, displays current configuration and where it was
loaded from. With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/witan/config.yaml
Project-specific overrides can be placed in .witan.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values and the paths they
// resolve from.
func displayAllConfig(cfg *config.Config) {
	fmt.Printf("anthropic.api_key: %s\n", maskedKey(cfg))
	fmt.Printf("aws.use_bedrock: %t\n", cfg.AWS.UseBedrock)
	fmt.Printf("aws.region: %s\n", cfg.AWS.Region)
	fmt.Printf("aws.profile: %s\n", cfg.AWS.Profile)
	fmt.Printf("defaults.tier: %s\n", cfg.Defaults.Tier)
	fmt.Printf("defaults.headless: %t\n", cfg.Defaults.Headless)
	fmt.Printf("tui.refresh_rate: %s\n", cfg.TUI.RefreshRate)
	fmt.Printf("deliberation.escalation_timeout: %s\n", cfg.Deliberation.EscalationTimeout)
	fmt.Printf("deliberation.consult_timeout: %s\n", cfg.Deliberation.ConsultTimeout)
	fmt.Printf("deliberation.retention_days: %d\n", cfg.Deliberation.RetentionDays)

	fmt.Println()
	fmt.Printf("API key source: %s\n", config.GetAPIKeySource(cfg))
	fmt.Printf("User config: %s\n", config.GetUserConfigPath())
	if p := config.GetProjectConfigPath(); p != "" {
		fmt.Printf("Project config: %s\n", p)
	}
}

// maskedKey renders the configured API key for display without
// revealing it.
func maskedKey(cfg *config.Config) string {
	if cfg.Anthropic.APIKey == "" {
		return "(not set)"
	}
	return config.MaskAPIKey(cfg.Anthropic.APIKey)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		return maskedKey(cfg), nil
	case "aws.use_bedrock":
		return strconv.FormatBool(cfg.AWS.UseBedrock), nil
	case "aws.region":
		return cfg.AWS.Region, nil
	case "aws.profile":
		return cfg.AWS.Profile, nil
	case "defaults.tier":
		return cfg.Defaults.Tier, nil
	case "defaults.headless":
		return strconv.FormatBool(cfg.Defaults.Headless), nil
	case "tui.refresh_rate":
		return cfg.TUI.RefreshRate.String(), nil
	case "deliberation.escalation_timeout":
		return cfg.Deliberation.EscalationTimeout.String(), nil
	case "deliberation.consult_timeout":
		return cfg.Deliberation.ConsultTimeout.String(), nil
	case "deliberation.retention_days":
		return strconv.Itoa(cfg.Deliberation.RetentionDays), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "aws.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for aws.use_bedrock: %w", err)
		}
		cfg.AWS.UseBedrock = b
	case "aws.region":
		cfg.AWS.Region = value
	case "aws.profile":
		cfg.AWS.Profile = value
	case "defaults.tier":
		if _, err := resolveTier(true, value, ""); err != nil {
			return err
		}
		cfg.Defaults.Tier = value
	case "defaults.headless":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for defaults.headless: %w", err)
		}
		cfg.Defaults.Headless = b
	case "tui.refresh_rate":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for refresh_rate: %w", err)
		}
		cfg.TUI.RefreshRate = d
	case "deliberation.escalation_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for escalation_timeout: %w", err)
		}
		cfg.Deliberation.EscalationTimeout = d
	case "deliberation.consult_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for consult_timeout: %w", err)
		}
		cfg.Deliberation.ConsultTimeout = d
	case "deliberation.retention_days":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for retention_days: %w", err)
		}
		cfg.Deliberation.RetentionDays = n
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
