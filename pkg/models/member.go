package models

// Council member IDs. Protocols and the roster address members by
// these stable identifiers; titles and perspectives may change, IDs
// do not.
const (
	MemberJurist      = "jurist"
	MemberPhilosopher = "philosopher"
	MemberSovereign   = "sovereign"
	MemberEconomist   = "economist"
	MemberEcosystem   = "ecosystem"
	MemberArchitect   = "architect"
	MemberOperator    = "operator"
	MemberFuturist    = "futurist"
)

// Member describes one seat on the council.
type Member struct {
	// ID is the stable identifier protocols use to address this member.
	ID string `json:"id"`
	// Title is the human-readable seat name.
	Title string `json:"title"`
	// Perspective is the persona brief the member reviews from.
	Perspective string `json:"perspective"`
	// Tier selects the consultation depth for this member.
	Tier Tier `json:"tier"`
}
