package reasoning

import (
	"strings"

	"github.com/witanworks/witan/pkg/models"
)

// Model identifiers for the consultation depth levels.
const (
	// ModelHaiku is the lightweight, fast model for brief readings.
	ModelHaiku = "claude-3-5-haiku-20241022"
	// ModelSonnet is the balanced model for standard deliberation.
	ModelSonnet = "claude-sonnet-4-20250514"
	// ModelOpus is the most capable model for plenary questions.
	ModelOpus = "claude-opus-4-5-20251101"
)

// Keywords that mark a proposal as consequential enough to upgrade the
// consultation to the plenary model.
var plenaryKeywords = []string{
	"irreversible",
	"constitutional",
	"existential",
	"merger",
	"restructuring",
}

// Keywords that mark a proposal as routine enough to downgrade the
// consultation to the brief model.
var briefKeywords = []string{
	"routine",
	"renewal",
	"housekeeping",
	"cosmetic",
	"minor",
}

// TierDefaultModels maps consultation tiers to their primary models.
var TierDefaultModels = map[models.Tier]string{
	models.TierBrief:   ModelHaiku,
	models.TierCouncil: ModelSonnet,
	models.TierPlenary: ModelOpus,
}

// TierFallbackModels maps consultation tiers to the model tried once
// when the primary call fails.
var TierFallbackModels = map[models.Tier]string{
	models.TierBrief:   ModelSonnet,
	models.TierCouncil: ModelHaiku,
	models.TierPlenary: ModelSonnet,
}

// SelectModel chooses the model for a consultation from the proposal
// text and the member's tier. Proposals naming plenary-grade stakes
// (irreversible, constitutional, ...) upgrade to opus; routine ones
// (renewal, housekeeping, ...) downgrade to haiku; otherwise the
// tier's default stands. When both kinds of keyword appear, the
// upgrade wins.
func SelectModel(proposal string, tier models.Tier) string {
	text := strings.ToLower(proposal)

	for _, kw := range plenaryKeywords {
		if strings.Contains(text, kw) {
			return ModelOpus
		}
	}

	for _, kw := range briefKeywords {
		if strings.Contains(text, kw) {
			return ModelHaiku
		}
	}

	return tierDefault(tier)
}

// tierDefault returns the primary model for a tier, sonnet when the
// tier is unknown.
func tierDefault(tier models.Tier) string {
	if model, ok := TierDefaultModels[tier]; ok {
		return model
	}
	return ModelSonnet
}

// tierFallback returns the fallback model for a tier, haiku when the
// tier is unknown so a broken config still degrades to the cheap path.
func tierFallback(tier models.Tier) string {
	if model, ok := TierFallbackModels[tier]; ok {
		return model
	}
	return ModelHaiku
}
