package tensions

import (
	"strings"

	"github.com/witanworks/witan/pkg/models"
)

// RatingsConflict reports whether two ratings are in direct conflict:
// one party blocks while the other approves. Order does not matter.
// WARN never conflicts; it is a recorded concern, not a veto.
func RatingsConflict(a, b models.Rating) bool {
	if a == models.RatingBlock && b.Approving() {
		return true
	}
	if b == models.RatingBlock && a.Approving() {
		return true
	}
	return false
}

// matchKeyword returns the first keyword contained in text, matching
// case-insensitively. Plain substring match; no stemming or
// tokenization, so "timelines" matches "timeline".
func matchKeyword(text string, keywords []string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}
