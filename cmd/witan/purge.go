package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/config"
	"github.com/witanworks/witan/internal/state"
)

var purgeOlderThan time.Duration

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove old deliberations from the history",
	Long: `Remove decided and abandoned deliberations older than the
retention window (deliberation.retention_days in config, 30 days by
default), along with their verdicts and tensions.

Deliberations still marked active but older than a day are first
marked abandoned so they age out too.`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().DurationVar(&purgeOlderThan, "older-than", 0, "Override the retention window (e.g. 168h)")
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	retention := time.Duration(cfg.Deliberation.RetentionDays) * 24 * time.Hour
	if cmd.Flags().Changed("older-than") {
		retention = purgeOlderThan
	}
	if retention <= 0 {
		return fmt.Errorf("retention window must be positive")
	}

	db, err := openHistoryDB()
	if err != nil {
		return err
	}
	if db == nil {
		fmt.Println("Nothing to purge.")
		return nil
	}
	defer db.Close()

	recovery := state.NewRecoveryManager(db)
	abandoned, err := recovery.AbandonStale(24 * time.Hour)
	if err != nil {
		fmt.Printf("Warning: abandon stale deliberations: %v\n", err)
	} else if abandoned > 0 {
		fmt.Printf("Abandoned %d stale deliberation(s)\n", abandoned)
	}

	purged, err := db.PurgeOldDeliberations(retention)
	if err != nil {
		return fmt.Errorf("purge deliberations: %w", err)
	}
	fmt.Printf("Purged %d deliberation(s) older than %s\n", purged, formatDuration(retention))
	return nil
}
