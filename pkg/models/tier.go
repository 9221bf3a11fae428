package models

// Tier represents the consultation depth for a council member.
type Tier string

const (
	// TierBrief is for fast, low-cost readings.
	TierBrief Tier = "brief"
	// TierCouncil is the standard deliberation depth.
	TierCouncil Tier = "council"
	// TierPlenary is for the most consequential proposals.
	TierPlenary Tier = "plenary"
)

// Valid returns true if the tier is a known value.
func (t Tier) Valid() bool {
	switch t {
	case TierBrief, TierCouncil, TierPlenary:
		return true
	default:
		return false
	}
}
