package store

import "fmt"

// NotFoundError is returned when a case or field lookup misses.
type NotFoundError struct {
	Entity string // "case" or "field"
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError is returned when a field edit carries a stale oldValue. The
// caller must reload the current value and resubmit.
type ConflictError struct {
	CaseID   string
	FieldID  string
	Expected string // caller-supplied oldValue
	Actual   string // value currently stored
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("field %s on case %s changed: expected %q, have %q",
		e.FieldID, e.CaseID, e.Expected, e.Actual)
}
