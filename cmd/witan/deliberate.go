package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/archive"
	"github.com/witanworks/witan/internal/config"
	"github.com/witanworks/witan/internal/council"
	"github.com/witanworks/witan/internal/deliberation"
	"github.com/witanworks/witan/internal/reasoning"
	"github.com/witanworks/witan/internal/signals"
	"github.com/witanworks/witan/internal/state"
	"github.com/witanworks/witan/internal/tensions"
	"github.com/witanworks/witan/pkg/models"
)

var (
	deliberateTier     string
	deliberateFile     string
	deliberateHeadless bool
	deliberateTimeout  time.Duration
	deliberateYes      bool
)

var deliberateCmd = &cobra.Command{
	Use:   "deliberate [proposal]",
	Short: "Put a proposal before the council",
	Long: `Put a proposal before the full council and drive it to a verdict.

Every member rates the proposal in parallel (ENDORSE, ACCEPT, WARN,
or BLOCK). The five conflict protocols then scan the verdicts in
priority order; each detected tension gets a bounded number of
re-consultation passes before it escalates to you.

The proposal is the first argument, or comes from a file with -f.

Tier selection (--tier):
  - brief:   fast reading, haiku model, quorum of 5
  - council: standard depth, sonnet model, quorum of 6 (default)
  - plenary: full-weight deliberation, opus model, all eight seats

By default a TUI shows the seats, tensions, and activity as they
happen, and escalations are answered in place. With --headless the
same events print as lines and escalations wait for 'witan answer'
from another terminal (or time out to the conservative default).

--yes-to-escalations accepts every escalation without asking. That
silences the one human checkpoint the council has; use it only for
proposals you would approve anyway.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeliberate,
}

func init() {
	deliberateCmd.Flags().StringVar(&deliberateTier, "tier", "", "Deliberation tier: brief, council, or plenary")
	deliberateCmd.Flags().StringVarP(&deliberateFile, "file", "f", "", "Read the proposal from a file")
	deliberateCmd.Flags().BoolVar(&deliberateHeadless, "headless", false, "Run without TUI (print event lines)")
	deliberateCmd.Flags().DurationVar(&deliberateTimeout, "timeout", 0, "Override the escalation answer timeout (e.g. 30m)")
	deliberateCmd.Flags().BoolVar(&deliberateYes, "yes-to-escalations", false, "Accept every escalation without asking")
}

func runDeliberate(cmd *cobra.Command, args []string) (retErr error) {
	// Recover from panics and report them
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("PANIC in runDeliberate: %v", r)
		}
	}()

	verbose := os.Getenv("WITAN_DEBUG") != ""

	proposal, err := loadProposal(args, deliberateFile)
	if err != nil {
		return err
	}
	if verbose {
		fmt.Println("[DEBUG] Starting runDeliberate...")
		fmt.Printf("[DEBUG] Proposal: %s\n", proposal)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tier, err := resolveTier(cmd.Flags().Changed("tier"), deliberateTier, cfg.Defaults.Tier)
	if err != nil {
		return err
	}
	headless := deliberateHeadless || cfg.Defaults.Headless
	if verbose {
		fmt.Printf("[DEBUG] Tier: %s\n", tier)
		fmt.Printf("[DEBUG] Headless: %v\n", headless)
	}

	projectRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	// Create context with cancellation for all modes
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nReceived interrupt, shutting down...")
		cancel()
	}()

	// Load tier configurations from YAML (fallback to defaults if missing)
	tierConfigs, err := config.LoadTierConfigs(filepath.Join(projectRoot, "configs"))
	if err != nil {
		tierConfigs = config.DefaultTierConfigs()
	}
	tc := tierConfigs.Get(tier)

	if verbose {
		fmt.Printf("[DEBUG] Primary model: %s\n", modelID(tc.PrimaryModel))
		fmt.Printf("[DEBUG] Quorum: %d\n", tc.Quorum)
	}

	client, err := reasoning.NewClient(reasoning.ClientConfig{
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.AWS.UseBedrock,
		AWSRegion:     cfg.AWS.Region,
		AWSProfile:    cfg.AWS.Profile,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	primaries, fallbacks := tierModelMaps(tierConfigs)
	consultant, err := reasoning.NewAPIConsultant(reasoning.ConsultantConfig{
		Client:        client,
		TierModels:    primaries,
		TierFallbacks: fallbacks,
		MaxTokens:     tc.MaxTokens,
	})
	if err != nil {
		return fmt.Errorf("create consultant: %w", err)
	}

	// Protocol overrides come from the protocols section of .witan.yaml.
	overrides, err := config.LoadProtocolOverrides(config.GetProjectConfigPath())
	if err != nil {
		return fmt.Errorf("load protocol overrides: %w", err)
	}
	protocols, err := buildProtocols(overrides)
	if err != nil {
		return err
	}
	engine, err := tensions.NewOrchestrator(protocols...)
	if err != nil {
		return fmt.Errorf("create tension engine: %w", err)
	}

	roster, err := council.NewDefaultRoster()
	if err != nil {
		return fmt.Errorf("create roster: %w", err)
	}

	// Open state database
	if verbose {
		fmt.Println("[DEBUG] Opening state database...")
	}
	db, err := state.OpenProject(projectRoot)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	// A deliberation left active by a crashed run cannot be resumed;
	// mark it abandoned so the history stays truthful.
	recovery := state.NewRecoveryManager(db)
	if interrupted, err := recovery.CheckForInterrupted(); err != nil {
		fmt.Printf("Warning: recovery check failed: %v\n", err)
	} else if interrupted != nil {
		fmt.Printf("Note: previous deliberation %s was interrupted, marking it abandoned\n",
			shortID(interrupted.DeliberationID))
		if err := recovery.Abandon(interrupted.DeliberationID); err != nil {
			fmt.Printf("Warning: abandon interrupted deliberation: %v\n", err)
		}
	}

	watcher, err := signals.NewWatcher(projectRoot)
	if err != nil {
		return fmt.Errorf("create signal watcher: %w", err)
	}
	defer watcher.Close()

	archiveStore, err := archive.NewStore(filepath.Join(watcher.WitanDir(), "archive.db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveStore.Close()

	logger := deliberation.NopLogger()
	if verbose {
		logger = deliberation.NewDebugLoggerForProject(projectRoot)
	}
	defer logger.Close()

	consultTimeout := tc.ConsultTimeout
	if consultTimeout <= 0 {
		consultTimeout = cfg.Deliberation.ConsultTimeout
	}
	escalationTimeout := cfg.Deliberation.EscalationTimeout
	if cmd.Flags().Changed("timeout") {
		escalationTimeout = deliberateTimeout
	}

	session, err := deliberation.NewSession(proposal, deliberation.Options{
		Roster:                roster,
		Consultant:            consultant,
		Engine:                engine,
		Tier:                  tier,
		Quorum:                tc.Quorum,
		ConsultTimeout:        consultTimeout,
		EscalationTimeout:     escalationTimeout,
		AutoAcceptEscalations: deliberateYes,
		Logger:                logger,
		History:               db,
		Archive:               archiveStore,
		Signals:               watcher,
		Tracker:               client.Tracker(),
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	// Run in headless or TUI mode
	if verbose {
		fmt.Printf("[DEBUG] Running in %s mode\n", map[bool]string{true: "headless", false: "TUI"}[headless])
	}
	if headless {
		return runHeadlessMode(ctx, session, proposal, tier, tc.Quorum)
	}
	return runWithTUI(ctx, session, tier, roster)
}

// resolveTier picks the deliberation tier from the --tier flag when it
// was set, otherwise from the config default, otherwise council.
func resolveTier(flagSet bool, flagValue, defaultTier string) (models.Tier, error) {
	name := defaultTier
	if flagSet {
		name = flagValue
	}
	if name == "" {
		return models.TierCouncil, nil
	}
	tier := models.Tier(name)
	if !tier.Valid() {
		return "", fmt.Errorf("invalid tier %q: must be brief, council, or plenary", name)
	}
	return tier, nil
}
