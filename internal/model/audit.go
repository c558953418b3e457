package model

import "time"

// AuditAction discriminates audit trail entries.
type AuditAction string

const (
	ActionFieldEdit         AuditAction = "FIELD_EDIT"
	ActionDecisionSubmitted AuditAction = "DECISION_SUBMITTED"
	ActionCaseOpened        AuditAction = "CASE_OPENED"
	ActionCaseClosed        AuditAction = "CASE_CLOSED"
)

// FieldEditDetail carries the fields specific to a FIELD_EDIT entry.
type FieldEditDetail struct {
	FieldID  string `json:"fieldId"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
	Reason   string `json:"reason"`
}

// DecisionDetail carries the fields specific to a DECISION_SUBMITTED entry.
type DecisionDetail struct {
	Decision       Decision `json:"decision"`
	IsOverride     bool     `json:"isOverride"`
	OverrideReason string   `json:"overrideReason,omitempty"`
	EvidenceUsed   []string `json:"evidenceUsed"`
}

// AuditEvent is one entry in a case's append-only audit trail. Action selects
// which detail pointer is populated; the others stay nil.
type AuditEvent struct {
	ID        string           `json:"id"`
	Action    AuditAction      `json:"action"`
	At        time.Time        `json:"at"`
	User      string           `json:"user"`
	FieldEdit *FieldEditDetail `json:"fieldEdit,omitempty"`
	Decision  *DecisionDetail  `json:"decision,omitempty"`
}
