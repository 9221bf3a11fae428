package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/witanworks/witan/pkg/models"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Defaults.Tier != "council" {
		t.Errorf("expected default tier 'council', got %q", cfg.Defaults.Tier)
	}

	if cfg.Defaults.Headless {
		t.Error("expected default headless to be false")
	}

	if cfg.TUI.RefreshRate != 100*time.Millisecond {
		t.Errorf("expected refresh rate 100ms, got %v", cfg.TUI.RefreshRate)
	}

	if cfg.Deliberation.EscalationTimeout != 10*time.Minute {
		t.Errorf("expected escalation timeout 10m, got %v", cfg.Deliberation.EscalationTimeout)
	}

	if cfg.Deliberation.ConsultTimeout != 2*time.Minute {
		t.Errorf("expected consult timeout 2m, got %v", cfg.Deliberation.ConsultTimeout)
	}

	if cfg.Deliberation.RetentionDays != 30 {
		t.Errorf("expected retention 30 days, got %d", cfg.Deliberation.RetentionDays)
	}

	if cfg.AWS.UseBedrock {
		t.Error("expected aws.use_bedrock to be false")
	}
}

func TestLoadFromPath(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
aws:
  use_bedrock: true
  region: us-west-2
  profile: deliberation
defaults:
  tier: plenary
  headless: true
tui:
  refresh_rate: 200ms
deliberation:
  escalation_timeout: 30m
  consult_timeout: 90s
  retention_days: 7
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}

	if !cfg.AWS.UseBedrock {
		t.Error("expected aws.use_bedrock to be true")
	}

	if cfg.AWS.Region != "us-west-2" {
		t.Errorf("expected aws.region 'us-west-2', got %q", cfg.AWS.Region)
	}

	if cfg.Defaults.Tier != "plenary" {
		t.Errorf("expected tier 'plenary', got %q", cfg.Defaults.Tier)
	}

	if !cfg.Defaults.Headless {
		t.Error("expected headless to be true")
	}

	if cfg.TUI.RefreshRate != 200*time.Millisecond {
		t.Errorf("expected refresh rate 200ms, got %v", cfg.TUI.RefreshRate)
	}

	if cfg.Deliberation.EscalationTimeout != 30*time.Minute {
		t.Errorf("expected escalation timeout 30m, got %v", cfg.Deliberation.EscalationTimeout)
	}

	if cfg.Deliberation.ConsultTimeout != 90*time.Second {
		t.Errorf("expected consult timeout 90s, got %v", cfg.Deliberation.ConsultTimeout)
	}

	if cfg.Deliberation.RetentionDays != 7 {
		t.Errorf("expected retention 7 days, got %d", cfg.Deliberation.RetentionDays)
	}
}

func TestExpandEnv(t *testing.T) {
	// Set environment variable
	os.Setenv("TEST_VAR", "expanded-value")
	defer os.Unsetenv("TEST_VAR")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	// Test with XDG_CONFIG_HOME set
	os.Setenv("XDG_CONFIG_HOME", "/custom/config")
	defer os.Unsetenv("XDG_CONFIG_HOME")

	dir := getUserConfigDir()
	expected := "/custom/config/witan"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestLoadTierConfigs(t *testing.T) {
	// Create temporary tier config files
	tmpDir := t.TempDir()

	briefContent := `
tier: brief
primary_model: haiku
fallback_model: ""
max_tokens: 512
consult_timeout: 30s
quorum: 4
`
	if err := os.WriteFile(filepath.Join(tmpDir, "brief.yaml"), []byte(briefContent), 0644); err != nil {
		t.Fatalf("failed to write brief.yaml: %v", err)
	}

	councilContent := `
tier: council
primary_model: sonnet
fallback_model: haiku
max_tokens: 2048
consult_timeout: 2m
quorum: 6
`
	if err := os.WriteFile(filepath.Join(tmpDir, "council.yaml"), []byte(councilContent), 0644); err != nil {
		t.Fatalf("failed to write council.yaml: %v", err)
	}

	plenaryContent := `
tier: plenary
primary_model: opus
fallback_model: sonnet
max_tokens: 4096
consult_timeout: 5m
quorum: 8
`
	if err := os.WriteFile(filepath.Join(tmpDir, "plenary.yaml"), []byte(plenaryContent), 0644); err != nil {
		t.Fatalf("failed to write plenary.yaml: %v", err)
	}

	// Load tier configs
	tierCfg, err := LoadTierConfigs(tmpDir)
	if err != nil {
		t.Fatalf("LoadTierConfigs failed: %v", err)
	}

	// Verify brief config
	if tierCfg.Brief == nil {
		t.Fatal("expected brief config to be non-nil")
	}
	if tierCfg.Brief.Tier != "brief" {
		t.Errorf("expected brief tier 'brief', got %q", tierCfg.Brief.Tier)
	}
	if tierCfg.Brief.PrimaryModel != "haiku" {
		t.Errorf("expected brief primary_model 'haiku', got %q", tierCfg.Brief.PrimaryModel)
	}
	if tierCfg.Brief.MaxTokens != 512 {
		t.Errorf("expected brief max_tokens 512, got %d", tierCfg.Brief.MaxTokens)
	}
	if tierCfg.Brief.ConsultTimeout != 30*time.Second {
		t.Errorf("expected brief consult_timeout 30s, got %v", tierCfg.Brief.ConsultTimeout)
	}
	if tierCfg.Brief.Quorum != 4 {
		t.Errorf("expected brief quorum 4, got %d", tierCfg.Brief.Quorum)
	}

	// Verify council config
	if tierCfg.Council == nil {
		t.Fatal("expected council config to be non-nil")
	}
	if tierCfg.Council.FallbackModel != "haiku" {
		t.Errorf("expected council fallback_model 'haiku', got %q", tierCfg.Council.FallbackModel)
	}
	if tierCfg.Council.Quorum != 6 {
		t.Errorf("expected council quorum 6, got %d", tierCfg.Council.Quorum)
	}

	// Verify plenary config
	if tierCfg.Plenary == nil {
		t.Fatal("expected plenary config to be non-nil")
	}
	if tierCfg.Plenary.PrimaryModel != "opus" {
		t.Errorf("expected plenary primary_model 'opus', got %q", tierCfg.Plenary.PrimaryModel)
	}
	if tierCfg.Plenary.ConsultTimeout != 5*time.Minute {
		t.Errorf("expected plenary consult_timeout 5m, got %v", tierCfg.Plenary.ConsultTimeout)
	}
}

func TestLoadTierConfigsMissingFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Only brief.yaml exists; council.yaml is missing.
	briefContent := "tier: brief\nprimary_model: haiku\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "brief.yaml"), []byte(briefContent), 0644); err != nil {
		t.Fatalf("failed to write brief.yaml: %v", err)
	}

	if _, err := LoadTierConfigs(tmpDir); err == nil {
		t.Error("expected error for missing council.yaml, got nil")
	}
}

func TestDefaultTierConfigs(t *testing.T) {
	tierCfg := DefaultTierConfigs()

	if tierCfg.Brief == nil || tierCfg.Council == nil || tierCfg.Plenary == nil {
		t.Fatal("expected all tier configs to be non-nil")
	}

	// Verify brief defaults
	if tierCfg.Brief.PrimaryModel != "haiku" {
		t.Errorf("expected default brief primary_model 'haiku', got %q", tierCfg.Brief.PrimaryModel)
	}
	if tierCfg.Brief.Quorum != 5 {
		t.Errorf("expected default brief quorum 5, got %d", tierCfg.Brief.Quorum)
	}

	// Verify council defaults
	if tierCfg.Council.PrimaryModel != "sonnet" {
		t.Errorf("expected default council primary_model 'sonnet', got %q", tierCfg.Council.PrimaryModel)
	}
	if tierCfg.Council.FallbackModel != "haiku" {
		t.Errorf("expected default council fallback_model 'haiku', got %q", tierCfg.Council.FallbackModel)
	}

	// Verify plenary defaults
	if tierCfg.Plenary.PrimaryModel != "opus" {
		t.Errorf("expected default plenary primary_model 'opus', got %q", tierCfg.Plenary.PrimaryModel)
	}
	if tierCfg.Plenary.Quorum != 8 {
		t.Errorf("expected default plenary quorum 8, got %d", tierCfg.Plenary.Quorum)
	}
}

func TestTierConfigsGet(t *testing.T) {
	tierCfg := DefaultTierConfigs()

	tests := []struct {
		tier     string
		expected *TierConfig
	}{
		{"brief", tierCfg.Brief},
		{"council", tierCfg.Council},
		{"plenary", tierCfg.Plenary},
		{"unknown", tierCfg.Council}, // Defaults to council
	}

	for _, tc := range tests {
		got := tierCfg.Get(models.Tier(tc.tier))
		if got != tc.expected {
			t.Errorf("Get(%q) = %v, want %v", tc.tier, got, tc.expected)
		}
	}
}

func TestGetAPIKeyBedrock(t *testing.T) {
	cfg := Default()
	cfg.AWS.UseBedrock = true

	key, err := GetAPIKey(cfg)
	if err != nil {
		t.Fatalf("GetAPIKey with bedrock failed: %v", err)
	}
	if key != "" {
		t.Errorf("expected empty key for bedrock routing, got %q", key)
	}

	if src := GetAPIKeySource(cfg); src != KeySourceBedrock {
		t.Errorf("expected source %q, got %q", KeySourceBedrock, src)
	}
}
