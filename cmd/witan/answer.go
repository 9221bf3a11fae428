package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/signals"
)

var (
	answerAccept    bool
	answerReject    bool
	answerRationale string
)

var answerCmd = &cobra.Command{
	Use:   "answer <protocol-id>",
	Short: "Answer a pending escalation",
	Long: `Answer an escalation raised by a running deliberation.

The running session watches .witan/escalations/ and applies the answer
as if it had been typed into the TUI. Use this from a second terminal
when a deliberation runs headless, or to answer remotely before the
escalation times out.

The protocol ID is printed with the escalation, e.g.:

  witan answer jurist_philosopher --reject --rationale "the block stands"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnswer,
}

func init() {
	answerCmd.Flags().BoolVar(&answerAccept, "accept", false, "Let the proposal proceed")
	answerCmd.Flags().BoolVar(&answerReject, "reject", false, "Reject the proposal")
	answerCmd.Flags().StringVar(&answerRationale, "rationale", "", "Reason recorded with the answer")
}

func runAnswer(cmd *cobra.Command, args []string) error {
	if answerAccept == answerReject {
		return fmt.Errorf("pass exactly one of --accept or --reject")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	watcher, err := signals.NewWatcher(cwd)
	if err != nil {
		return fmt.Errorf("create signal watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.WriteAnswer(args[0], answerAccept, answerRationale); err != nil {
		return fmt.Errorf("write answer: %w", err)
	}

	decision := "rejection"
	if answerAccept {
		decision = "acceptance"
	}
	fmt.Printf("Recorded %s for %s\n", decision, args[0])
	return nil
}
