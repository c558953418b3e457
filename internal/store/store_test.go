package store

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"pa-review-service/internal/model"
)

var testClock = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(listSize int) *Store {
	return New(Options{
		ListSize:  listSize,
		SLAWindow: 72 * time.Hour,
		Now:       func() time.Time { return testClock },
	})
}

func seedReviewCase() model.Case {
	return model.Case{
		CaseID:     "PA-10293",
		Status:     model.StatusNew,
		Specialty:  "Cardiology",
		Member:     model.Member{ID: "M-000001", Name: "Maria Garcia"},
		Request:    model.ServiceRequest{Description: "Cardiac MRI with contrast", CodeType: "CPT", Code: "75561"},
		ReceivedAt: testClock.Add(-24 * time.Hour),
		Documents:  []model.Document{{ID: "PA-10293-doc1", Title: "Imaging report", PageCount: 4}},
		Extractions: []model.Extraction{{
			FieldID:    "ef",
			Label:      "Ejection fraction",
			Value:      "25%",
			Confidence: 0.91,
			Source:     model.SourceRef{DocumentID: "PA-10293-doc1", Page: 2},
		}},
		AIRecommendation: model.AIRecommendation{
			Decision:         model.DecisionApproved,
			Rationale:        []string{"Documented failure of first-line therapy."},
			EvidenceFieldIDs: []string{"ef"},
		},
	}
}

func TestInitializeIdempotent(t *testing.T) {
	s := newTestStore(25)
	s.Initialize()
	if got := len(s.List()); got != 25 {
		t.Fatalf("expected 25 worklist rows, got %d", got)
	}

	// Mutate a case, then initialize again: the mutation must survive and
	// the worklist must not grow.
	id := s.List()[3].CaseID
	c := s.GetOrCreate(id)
	updated, err := s.ApplyDecision(DecisionInput{
		CaseID:       id,
		Decision:     model.DecisionDenied,
		EvidenceUsed: []string{c.Extractions[0].FieldID},
		User:         "reviewer-1",
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}

	s.Initialize()
	if got := len(s.List()); got != 25 {
		t.Fatalf("second Initialize changed worklist size to %d", got)
	}
	again := s.GetOrCreate(id)
	if again.Status != model.StatusDenied {
		t.Fatalf("second Initialize reset case status to %s", again.Status)
	}
	if len(again.AuditTrail) != len(updated.AuditTrail) {
		t.Fatalf("second Initialize altered audit trail: %d != %d",
			len(again.AuditTrail), len(updated.AuditTrail))
	}
}

func TestGetOrCreateCachesFirstGeneration(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()

	first := s.GetOrCreate("PA-90001")
	second := s.GetOrCreate("PA-90001")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated GetOrCreate returned different content for the same id")
	}
}

func TestGeneratedCaseMatchesWorklistRow(t *testing.T) {
	s := newTestStore(10)
	s.Initialize()

	for _, item := range s.List() {
		c := s.GetOrCreate(item.CaseID)
		got := model.ListItemOf(c)
		if !reflect.DeepEqual(got, item) {
			t.Fatalf("case %s diverges from its worklist row:\n got %+v\nwant %+v",
				item.CaseID, got, item)
		}
	}
}

func TestApplyFieldEdit(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	c, err := s.ApplyFieldEdit(FieldEdit{
		CaseID:   "PA-10293",
		FieldID:  "ef",
		OldValue: "25%",
		NewValue: "20%",
		Reason:   "repeat echo",
		User:     "reviewer-1",
	})
	if err != nil {
		t.Fatalf("ApplyFieldEdit: %v", err)
	}
	if got := c.Extractions[0].Value; got != "20%" {
		t.Fatalf("expected value 20%%, got %q", got)
	}
	if got := c.Extractions[0].Confidence; got != 0.91 {
		t.Fatalf("confidence must not change on edit, got %v", got)
	}
	if len(c.AuditTrail) != 1 {
		t.Fatalf("expected audit trail length 1, got %d", len(c.AuditTrail))
	}
	ev := c.AuditTrail[0]
	if ev.Action != model.ActionFieldEdit {
		t.Fatalf("expected FIELD_EDIT, got %s", ev.Action)
	}
	if ev.FieldEdit == nil {
		t.Fatal("FIELD_EDIT event missing detail")
	}
	if ev.FieldEdit.OldValue != "25%" || ev.FieldEdit.NewValue != "20%" || ev.FieldEdit.Reason != "repeat echo" {
		t.Fatalf("unexpected edit detail: %+v", ev.FieldEdit)
	}
	if ev.User != "reviewer-1" {
		t.Fatalf("unexpected user %q", ev.User)
	}
	if ev.ID == "" {
		t.Fatal("event id not assigned")
	}
}

func TestApplyFieldEditStaleValueConflicts(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	_, err := s.ApplyFieldEdit(FieldEdit{
		CaseID:   "PA-10293",
		FieldID:  "ef",
		OldValue: "30%", // someone else saw a different value
		NewValue: "20%",
		Reason:   "stale",
		User:     "reviewer-2",
	})
	var conflict ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Actual != "25%" || conflict.Expected != "30%" {
		t.Fatalf("unexpected conflict detail: %+v", conflict)
	}

	c := s.GetOrCreate("PA-10293")
	if c.Extractions[0].Value != "25%" {
		t.Fatalf("stale edit changed the stored value to %q", c.Extractions[0].Value)
	}
	if len(c.AuditTrail) != 0 {
		t.Fatalf("stale edit appended %d audit events", len(c.AuditTrail))
	}
}

func TestApplyFieldEditNotFound(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	tests := []struct {
		name   string
		edit   FieldEdit
		entity string
	}{
		{"unknown case", FieldEdit{CaseID: "PA-99999", FieldID: "ef", OldValue: "25%", NewValue: "20%"}, "case"},
		{"unknown field", FieldEdit{CaseID: "PA-10293", FieldID: "missing", OldValue: "25%", NewValue: "20%"}, "field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ApplyFieldEdit(tt.edit)
			var nf NotFoundError
			if !errors.As(err, &nf) {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
			if nf.Entity != tt.entity {
				t.Fatalf("expected entity %q, got %q", tt.entity, nf.Entity)
			}
		})
	}
}

func TestApplyDecision(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	c, err := s.ApplyDecision(DecisionInput{
		CaseID:       "PA-10293",
		Decision:     model.DecisionApproved,
		EvidenceUsed: []string{"ef"},
		User:         "reviewer-1",
	})
	if err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	if c.Status != model.StatusApproved {
		t.Fatalf("expected APPROVED, got %s", c.Status)
	}
	if len(c.AuditTrail) != 1 {
		t.Fatalf("expected 1 audit event, got %d", len(c.AuditTrail))
	}
	ev := c.AuditTrail[0]
	if ev.Action != model.ActionDecisionSubmitted || ev.Decision == nil {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Decision.IsOverride {
		t.Fatal("decision recorded as override")
	}
	if !reflect.DeepEqual(ev.Decision.EvidenceUsed, []string{"ef"}) {
		t.Fatalf("unexpected evidence: %v", ev.Decision.EvidenceUsed)
	}

	// The worklist row must follow the status change when the case is part
	// of the seeded worklist.
	id := s.List()[0].CaseID
	if _, err := s.ApplyDecision(DecisionInput{
		CaseID:       id,
		Decision:     model.DecisionDenied,
		EvidenceUsed: []string{"f1"},
		User:         "reviewer-1",
	}); err != nil {
		t.Fatalf("ApplyDecision on worklist case: %v", err)
	}
	if got := s.List()[0].Status; got != model.StatusDenied {
		t.Fatalf("worklist row not synced, status %s", got)
	}
}

func TestRedecisionOnTerminalCaseAllowed(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	if _, err := s.ApplyDecision(DecisionInput{
		CaseID: "PA-10293", Decision: model.DecisionApproved,
		EvidenceUsed: []string{"ef"}, User: "reviewer-1",
	}); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	c, err := s.ApplyDecision(DecisionInput{
		CaseID: "PA-10293", Decision: model.DecisionDenied,
		IsOverride: true, OverrideReason: "criteria not met on re-review",
		EvidenceUsed: []string{"ef"}, User: "reviewer-2",
	})
	if err != nil {
		t.Fatalf("re-decision: %v", err)
	}
	if c.Status != model.StatusDenied {
		t.Fatalf("expected DENIED after correction, got %s", c.Status)
	}
	if len(c.AuditTrail) != 2 {
		t.Fatalf("expected both decisions recorded, got %d events", len(c.AuditTrail))
	}
	if !c.AuditTrail[1].Decision.IsOverride {
		t.Fatal("override flag not recorded")
	}
}

func TestAuditTrailAppendOnly(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	c, err := s.ApplyFieldEdit(FieldEdit{
		CaseID: "PA-10293", FieldID: "ef",
		OldValue: "25%", NewValue: "22%", Reason: "updated echo", User: "reviewer-1",
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	firstEvent := c.AuditTrail[0]

	for i := 0; i < 5; i++ {
		prev := len(s.GetOrCreate("PA-10293").AuditTrail)
		c, err = s.ApplyDecision(DecisionInput{
			CaseID:       "PA-10293",
			Decision:     model.DecisionNeedsInfo,
			EvidenceUsed: []string{"ef"},
			User:         fmt.Sprintf("reviewer-%d", i),
		})
		if err != nil {
			t.Fatalf("decision %d: %v", i, err)
		}
		if len(c.AuditTrail) != prev+1 {
			t.Fatalf("mutation %d: trail went %d -> %d, want +1", i, prev, len(c.AuditTrail))
		}
	}

	// The first recorded event must be untouched by later mutations.
	if !reflect.DeepEqual(s.GetOrCreate("PA-10293").AuditTrail[0], firstEvent) {
		t.Fatal("previously recorded audit event was altered")
	}

	// Insertion order must agree with chronological order.
	trail := s.GetOrCreate("PA-10293").AuditTrail
	for i := 1; i < len(trail); i++ {
		if !trail[i].At.After(trail[i-1].At) {
			t.Fatalf("event %d timestamp %v not after %v", i, trail[i].At, trail[i-1].At)
		}
	}
}

func TestConcurrentMutationsSerialized(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.ApplyDecision(DecisionInput{
				CaseID:       "PA-10293",
				Decision:     model.DecisionNeedsInfo,
				EvidenceUsed: []string{"ef"},
				User:         fmt.Sprintf("reviewer-%d", i),
			})
			if err != nil {
				t.Errorf("decision %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	trail := s.GetOrCreate("PA-10293").AuditTrail
	if len(trail) != n {
		t.Fatalf("expected %d audit events, got %d", n, len(trail))
	}
	for i := 1; i < len(trail); i++ {
		if !trail[i].At.After(trail[i-1].At) {
			t.Fatalf("event %d not strictly after predecessor", i)
		}
	}
}

func TestReturnedCasesAreDetached(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()
	s.Put(seedReviewCase())

	c := s.GetOrCreate("PA-10293")
	c.Extractions[0].Value = "tampered"
	c.AuditTrail = append(c.AuditTrail, model.AuditEvent{Action: model.ActionCaseClosed})

	fresh := s.GetOrCreate("PA-10293")
	if fresh.Extractions[0].Value != "25%" {
		t.Fatal("caller mutation leaked into store state")
	}
	if len(fresh.AuditTrail) != 0 {
		t.Fatal("caller append leaked into audit trail")
	}
}
