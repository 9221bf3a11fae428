package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/witanworks/witan/internal/config"
	"github.com/witanworks/witan/internal/tensions"
	"github.com/witanworks/witan/pkg/models"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the conflict protocols",
	Long: `List the five conflict protocols in priority order, with the
members each one watches and its resolution bound.

A bound of zero means the protocol escalates to a human the moment it
fires; larger bounds grant that many re-consultation passes first.
Bounds and trigger keywords can be adjusted per project in the
protocols section of .witan.yaml.`,
	RunE: runProtocols,
}

func runProtocols(cmd *cobra.Command, args []string) error {
	overrides, err := config.LoadProtocolOverrides(config.GetProjectConfigPath())
	if err != nil {
		return fmt.Errorf("load protocol overrides: %w", err)
	}

	fmt.Printf("%-4s %-22s %-24s %s\n", "PRI", "PROTOCOL", "PARTIES", "RESOLUTION BOUND")
	for _, c := range tensions.DefaultConfigs() {
		adjusted := ""
		if ov, ok := overrides[c.ProtocolID]; ok {
			if ov.MaxIterations != nil {
				c.MaxIterations = *ov.MaxIterations
				adjusted = " (project override)"
			}
			if len(ov.Keywords) > 0 {
				adjusted += fmt.Sprintf(" (+%d keywords)", len(ov.Keywords))
			}
		}

		parties := c.AgentA + " / " + c.AgentB
		if c.AgentB == models.AllMembers {
			parties = c.AgentA + " / council"
		}

		bound := fmt.Sprintf("%d passes", c.MaxIterations)
		if c.MaxIterations == 0 {
			bound = "escalates immediately"
		}

		fmt.Printf("%-4d %-22s %-24s %s%s\n", c.Priority, c.ProtocolID, parties, bound, adjusted)
	}
	return nil
}
