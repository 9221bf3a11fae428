package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/witanworks/witan/internal/config"
	"github.com/witanworks/witan/internal/reasoning"
	"github.com/witanworks/witan/internal/tensions"
	"github.com/witanworks/witan/pkg/models"
)

// loadProposal returns the proposal text from the positional argument
// or, with --file, from a file.
func loadProposal(args []string, file string) (string, error) {
	if file != "" {
		if len(args) > 0 {
			return "", fmt.Errorf("pass a proposal argument or --file, not both")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read proposal file: %w", err)
		}
		proposal := strings.TrimSpace(string(data))
		if proposal == "" {
			return "", fmt.Errorf("proposal file %s is empty", file)
		}
		return proposal, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("no proposal given; pass it as an argument or with --file")
	}
	proposal := strings.TrimSpace(args[0])
	if proposal == "" {
		return "", fmt.Errorf("proposal is empty")
	}
	return proposal, nil
}

// modelID resolves the short model names used in tier configs to full
// API model identifiers. Full identifiers pass through unchanged.
func modelID(name string) string {
	switch strings.ToLower(name) {
	case "haiku":
		return reasoning.ModelHaiku
	case "sonnet":
		return reasoning.ModelSonnet
	case "opus":
		return reasoning.ModelOpus
	default:
		return name
	}
}

// tierModelMaps expands the tier configs into the per-tier model maps
// the consultant consumes.
func tierModelMaps(tcs *config.TierConfigs) (primaries, fallbacks map[models.Tier]string) {
	primaries = make(map[models.Tier]string)
	fallbacks = make(map[models.Tier]string)
	for tier, tc := range map[models.Tier]*config.TierConfig{
		models.TierBrief:   tcs.Brief,
		models.TierCouncil: tcs.Council,
		models.TierPlenary: tcs.Plenary,
	} {
		if tc == nil {
			continue
		}
		if tc.PrimaryModel != "" {
			primaries[tier] = modelID(tc.PrimaryModel)
		}
		if tc.FallbackModel != "" {
			fallbacks[tier] = modelID(tc.FallbackModel)
		}
	}
	return primaries, fallbacks
}

// buildProtocols constructs the five conflict protocols, applying any
// per-protocol overrides from the project config. Keywords are only
// legal on the keyword-driven protocols, the ones that weigh one
// member against the whole council.
func buildProtocols(overrides config.ProtocolOverrides) ([]tensions.Protocol, error) {
	cfgs := tensions.DefaultConfigs()

	known := make(map[string]bool, len(cfgs))
	for _, c := range cfgs {
		known[c.ProtocolID] = true
	}
	for id := range overrides {
		if !known[id] {
			return nil, fmt.Errorf("unknown protocol %q in config", id)
		}
	}

	protocols := make([]tensions.Protocol, 0, len(cfgs))
	for _, c := range cfgs {
		var extra []string
		if ov, ok := overrides[c.ProtocolID]; ok {
			if ov.MaxIterations != nil {
				c.MaxIterations = *ov.MaxIterations
			}
			if len(ov.Keywords) > 0 {
				if c.AgentB != models.AllMembers {
					return nil, fmt.Errorf("protocol %s does not take keywords", c.ProtocolID)
				}
				extra = ov.Keywords
			}
		}
		p, err := tensions.New(c, extra...)
		if err != nil {
			return nil, fmt.Errorf("construct %s: %w", c.ProtocolID, err)
		}
		protocols = append(protocols, p)
	}
	return protocols, nil
}
