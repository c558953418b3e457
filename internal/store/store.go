// Package store is the authoritative in-memory table of prior-authorization
// cases. It is the sole mutator of case state: every mutation is applied and
// audited under one lock so concurrent calls against the same case never
// interleave partial updates.
package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"pa-review-service/internal/model"
)

// Options configures a Store.
type Options struct {
	// ListSize is the number of worklist rows seeded by Initialize.
	ListSize int
	// SLAWindow is added to a case's received time to produce its deadline.
	SLAWindow time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store holds all cases plus the worklist projection.
type Store struct {
	mu          sync.RWMutex
	initialized bool

	cases map[string]*model.Case
	items []model.CaseListItem
	index map[string]int // caseID -> position in items

	listSize  int
	slaWindow time.Duration
	nowFn     func() time.Time
	epoch     time.Time // fixed at construction so generated content is stable
}

// New constructs an empty store. Call Initialize before serving.
func New(opts Options) *Store {
	if opts.ListSize <= 0 {
		opts.ListSize = 750
	}
	if opts.SLAWindow <= 0 {
		opts.SLAWindow = 72 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Store{
		cases:     make(map[string]*model.Case),
		index:     make(map[string]int),
		listSize:  opts.ListSize,
		slaWindow: opts.SLAWindow,
		nowFn:     opts.Now,
		epoch:     opts.Now(),
	}
}

// Initialize populates the worklist projection and materializes the first
// case in full. Calling it again is a no-op: it never duplicates rows or
// resets mutations already applied.
func (s *Store) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	for i := 0; i < s.listSize; i++ {
		id := listCaseID(i)
		s.index[id] = len(s.items)
		s.items = append(s.items, s.summaryFor(id))
	}
	if len(s.items) > 0 {
		s.materializeLocked(s.items[0].CaseID)
	}
	s.initialized = true
}

// List returns a copy of the current worklist projection.
func (s *Store) List() []model.CaseListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CaseListItem(nil), s.items...)
}

// GetOrCreate returns the case with the given id, materializing it from the
// deterministic generator on first access. The generated result is cached so
// repeated fetches observe identical content and later mutations.
func (s *Store) GetOrCreate(caseID string) model.Case {
	s.mu.RLock()
	if c, ok := s.cases[caseID]; ok {
		cp := cloneCase(*c)
		s.mu.RUnlock()
		return cp
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCase(*s.materializeLocked(caseID))
}

func (s *Store) materializeLocked(caseID string) *model.Case {
	if c, ok := s.cases[caseID]; ok {
		return c
	}
	c := s.generateCase(caseID)
	s.cases[caseID] = &c
	return &c
}

// Put seeds or replaces a case wholesale and syncs its worklist row. Intended
// for initialization and tests, not for the mutation path.
func (s *Store) Put(c model.Case) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := cloneCase(c)
	s.cases[c.CaseID] = &cp
	s.syncListItemLocked(&cp)
}

// FieldEdit is the input to ApplyFieldEdit.
type FieldEdit struct {
	CaseID   string
	FieldID  string
	OldValue string
	NewValue string
	Reason   string
	User     string
	At       time.Time
}

// ApplyFieldEdit updates one extraction value and appends the matching
// FIELD_EDIT audit event as a single atomic step. OldValue must match the
// currently stored value; a stale edit fails with ConflictError and leaves
// the case untouched.
func (s *Store) ApplyFieldEdit(in FieldEdit) (model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[in.CaseID]
	if !ok {
		return model.Case{}, NotFoundError{Entity: "case", ID: in.CaseID}
	}
	i := c.ExtractionIndex(in.FieldID)
	if i < 0 {
		return model.Case{}, NotFoundError{Entity: "field", ID: in.FieldID}
	}
	if c.Extractions[i].Value != in.OldValue {
		return model.Case{}, ConflictError{
			CaseID:   in.CaseID,
			FieldID:  in.FieldID,
			Expected: in.OldValue,
			Actual:   c.Extractions[i].Value,
		}
	}

	c.Extractions[i].Value = in.NewValue
	s.appendEventLocked(c, model.AuditEvent{
		Action: model.ActionFieldEdit,
		At:     in.At,
		User:   in.User,
		FieldEdit: &model.FieldEditDetail{
			FieldID:  in.FieldID,
			OldValue: in.OldValue,
			NewValue: in.NewValue,
			Reason:   in.Reason,
		},
	})
	return cloneCase(*c), nil
}

// DecisionInput is the input to ApplyDecision.
type DecisionInput struct {
	CaseID         string
	Decision       model.Decision
	IsOverride     bool
	OverrideReason string
	EvidenceUsed   []string
	User           string
	At             time.Time
}

// ApplyDecision sets the case status from the decision and appends one
// DECISION_SUBMITTED audit event. A decision on a case that is already
// APPROVED or DENIED is accepted and recorded again; reviewers are allowed
// to correct an earlier call.
func (s *Store) ApplyDecision(in DecisionInput) (model.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cases[in.CaseID]
	if !ok {
		return model.Case{}, NotFoundError{Entity: "case", ID: in.CaseID}
	}

	c.Status = in.Decision.Status()
	s.appendEventLocked(c, model.AuditEvent{
		Action: model.ActionDecisionSubmitted,
		At:     in.At,
		User:   in.User,
		Decision: &model.DecisionDetail{
			Decision:       in.Decision,
			IsOverride:     in.IsOverride,
			OverrideReason: in.OverrideReason,
			EvidenceUsed:   append([]string(nil), in.EvidenceUsed...),
		},
	})
	s.syncListItemLocked(c)
	return cloneCase(*c), nil
}

// appendEventLocked stamps and appends one audit event. Timestamps are kept
// monotonic within a case: an event that would not sort after the current
// tail is bumped just past it, so insertion order and chronological order
// agree.
func (s *Store) appendEventLocked(c *model.Case, ev model.AuditEvent) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.At.IsZero() {
		ev.At = s.nowFn()
	}
	if n := len(c.AuditTrail); n > 0 {
		if last := c.AuditTrail[n-1].At; !ev.At.After(last) {
			ev.At = last.Add(time.Millisecond)
		}
	}
	c.AuditTrail = append(c.AuditTrail, ev)
}

// syncListItemLocked keeps the worklist row consistent with the case. Cases
// materialized outside the seeded worklist have no row to sync.
func (s *Store) syncListItemLocked(c *model.Case) {
	if i, ok := s.index[c.CaseID]; ok {
		s.items[i] = model.ListItemOf(*c)
	}
}
