package models

// Rating is a council member's verdict on a proposal.
type Rating string

const (
	// RatingAccept indicates the member finds the proposal acceptable as written.
	RatingAccept Rating = "ACCEPT"
	// RatingEndorse indicates the member actively supports the proposal.
	RatingEndorse Rating = "ENDORSE"
	// RatingWarn indicates the member sees risks that should be recorded.
	RatingWarn Rating = "WARN"
	// RatingBlock indicates the member vetoes the proposal.
	RatingBlock Rating = "BLOCK"
)

// Valid returns true if the rating is a known value.
func (r Rating) Valid() bool {
	switch r {
	case RatingAccept, RatingEndorse, RatingWarn, RatingBlock:
		return true
	default:
		return false
	}
}

// Approving returns true for ratings that signal assent.
func (r Rating) Approving() bool {
	return r == RatingAccept || r == RatingEndorse
}

// Objecting returns true for ratings that signal concern.
func (r Rating) Objecting() bool {
	return r == RatingWarn || r == RatingBlock
}
