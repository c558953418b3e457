package model

// CaseStatus tracks where a prior-authorization case sits in the review
// lifecycle.
type CaseStatus string

const (
	StatusNew       CaseStatus = "NEW"
	StatusInReview  CaseStatus = "IN_REVIEW"
	StatusNeedsInfo CaseStatus = "NEEDS_INFO"
	StatusApproved  CaseStatus = "APPROVED"
	StatusDenied    CaseStatus = "DENIED"
)

// Terminal reports whether the status represents a final determination.
func (s CaseStatus) Terminal() bool {
	return s == StatusApproved || s == StatusDenied
}

// Decision is a reviewer's (or the AI's) determination for a case.
type Decision string

const (
	DecisionApproved  Decision = "APPROVED"
	DecisionDenied    Decision = "DENIED"
	DecisionNeedsInfo Decision = "NEEDS_INFO"
)

// Valid reports whether d is one of the known decision values.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApproved, DecisionDenied, DecisionNeedsInfo:
		return true
	}
	return false
}

// Status maps a submitted decision onto the case status it implies.
func (d Decision) Status() CaseStatus {
	switch d {
	case DecisionApproved:
		return StatusApproved
	case DecisionDenied:
		return StatusDenied
	default:
		return StatusNeedsInfo
	}
}
