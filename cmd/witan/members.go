package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/council"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the council seats",
	Long: `List the eight council seats and the perspective each one
reviews proposals from. The roster is fixed; protocols address members
by the IDs shown here.`,
	RunE: runMembers,
}

func runMembers(cmd *cobra.Command, args []string) error {
	roster, err := council.NewDefaultRoster()
	if err != nil {
		return fmt.Errorf("create roster: %w", err)
	}

	for _, m := range roster.Members() {
		fmt.Printf("%-12s %s\n", m.ID, m.Title)
		fmt.Printf("%-12s %s\n", "", m.Perspective)
		fmt.Println()
	}
	return nil
}
