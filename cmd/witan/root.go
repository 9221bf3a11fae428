package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "witan",
	Short: "Council deliberation engine",
	Long: `Witan puts proposals before a fixed council of eight advisors,
detects tensions between their verdicts, and drives each tension
through a bounded resolution protocol before escalating to a human.

A deliberation convenes the full council in parallel, collects rated
verdicts (ENDORSE, ACCEPT, WARN, BLOCK), and runs the conflict
protocols in priority order. Tensions that outlast their resolution
passes stop the session and wait for a human decision.

Core capabilities:
- Convenes eight fixed perspectives on every proposal
- Detects rating conflicts with five bounded protocols
- Re-consults conflicting members until they converge or exhaust
- Escalates unresolved tensions to a human, in the TUI or via
  'witan answer' from another terminal
- Records every deliberation for 'witan history' and 'witan show'`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(deliberateCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(protocolsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(answerCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
