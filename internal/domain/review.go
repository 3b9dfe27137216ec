package domain

// ReviewDecision is the verdict a posted review carries.
type ReviewDecision string

const (
	ReviewApproved         ReviewDecision = "APPROVED"
	ReviewChangesRequested ReviewDecision = "CHANGES_REQUESTED"
)

// Dismissible reports whether a review in this decision state can be
// dismissed by the host. Plain comment reviews cannot.
func (d ReviewDecision) Dismissible() bool {
	return d == ReviewApproved || d == ReviewChangesRequested
}

// ReviewState is the last posted review bound to a change request, as read
// back from the host. Ownership is proven by author attributes plus the
// marker embedded in the body; either alone is not enough.
type ReviewState struct {
	ID          int64
	Decision    ReviewDecision
	Body        string
	AuthorLogin string
	AuthorIsBot bool
}

// DesiredDecision derives the review verdict from post-filter severity
// counts: any high-severity finding requests changes, otherwise approve.
func DesiredDecision(counts SeverityCounts) ReviewDecision {
	if counts.High > 0 {
		return ReviewChangesRequested
	}
	return ReviewApproved
}
