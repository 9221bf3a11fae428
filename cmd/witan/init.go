package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/config"
)

var (
	initForce       bool
	initWithConfigs bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a Witan project",
	Long: `Initialize a directory for council deliberations.

This command sets up everything needed to run Witan:
  - Checks that an API key is available
  - Creates the .witan directory structure
  - Creates a .witan.yaml template for project overrides
  - Optionally creates per-tier configuration files

The directory argument is optional and defaults to the current directory.

Examples:
  witan init                 # Initialize current directory
  witan init ./myproject     # Initialize specific directory
  witan init --force         # Reinitialize even if already set up
  witan init --with-configs  # Create tier config files in configs/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initWithConfigs, "with-configs", false, "Create tier configuration files")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing Witan in %s...\n\n", absPath)

	witanDir := filepath.Join(absPath, ".witan")
	if _, err := os.Stat(witanDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	switch {
	case apiKey != "":
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	case os.Getenv("WITAN_USE_BEDROCK") != "":
		printStatus("✓", "Routing through AWS Bedrock", color.FgGreen)
	default:
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	}

	for _, dir := range []string{
		witanDir,
		filepath.Join(witanDir, "logs"),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .witan directory structure", color.FgGreen)

	if err := updateGitignore(absPath); err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	printStatus("✓", "Updated .gitignore with Witan entries", color.FgGreen)

	if err := createProjectConfig(absPath); err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	printStatus("✓", "Created .witan.yaml template", color.FgGreen)

	if initWithConfigs {
		if err := createTierConfigs(absPath); err != nil {
			return fmt.Errorf("creating tier configs: %w", err)
		}
		printStatus("✓", "Created tier configurations in configs/", color.FgGreen)
	}

	fmt.Printf("\n%s Witan initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if apiKey == "" {
		fmt.Println("  1. Set your API key:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Put a proposal before the council:")
	fmt.Println("     witan deliberate \"your proposal here\"")
	fmt.Println()
	fmt.Println("  3. Learn more:")
	fmt.Println("     witan --help")

	return nil
}

// updateGitignore adds Witan entries to .gitignore if not present.
// .witan.yaml is deliberately not ignored; project config belongs in
// version control, local state does not.
func updateGitignore(repoPath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	witanEntries := []string{
		".witan/",
		"witan",
	}

	needsUpdate := false
	for _, entry := range witanEntries {
		if !strings.Contains(existingContent, entry) {
			needsUpdate = true
			break
		}
	}
	if !needsUpdate {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}

	newContent.WriteString("\n# Witan\n")
	for _, entry := range witanEntries {
		if !strings.Contains(existingContent, entry) {
			newContent.WriteString(entry + "\n")
		}
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

// createProjectConfig creates a .witan.yaml template.
func createProjectConfig(repoPath string) error {
	configPath := filepath.Join(repoPath, ".witan.yaml")

	// Don't overwrite an existing project config
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	template := `# Witan Project Configuration
# This file overrides defaults from ~/.config/witan/config.yaml

# defaults:
#   tier: council
#   headless: false

# deliberation:
#   escalation_timeout: 10m
#   consult_timeout: 2m
#   retention_days: 30

# Per-protocol overrides. max_iterations bounds the resolution passes
# before a tension escalates (zero escalates immediately). keywords
# extend the trigger set of the keyword-driven protocols.
# protocols:
#   sovereign_economist:
#     max_iterations: 4
#   operator_strategy:
#     keywords:
#       - headcount
#       - deadline
`

	return os.WriteFile(configPath, []byte(template), 0644)
}

// createTierConfigs writes the per-tier YAML files that 'witan
// deliberate' reads from configs/. The contents match the built-in
// defaults so editing them is the only step to diverge.
func createTierConfigs(repoPath string) error {
	configsDir := filepath.Join(repoPath, "configs")
	if err := os.MkdirAll(configsDir, 0755); err != nil {
		return err
	}

	for name, tc := range map[string]*config.TierConfig{
		"brief.yaml":   config.DefaultTierConfigs().Brief,
		"council.yaml": config.DefaultTierConfigs().Council,
		"plenary.yaml": config.DefaultTierConfigs().Plenary,
	} {
		path := filepath.Join(configsDir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		content := fmt.Sprintf(`tier: %s
primary_model: %s
fallback_model: %q
max_tokens: %d
consult_timeout: %s
quorum: %d
`, tc.Tier, tc.PrimaryModel, tc.FallbackModel, tc.MaxTokens, tc.ConsultTimeout, tc.Quorum)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
