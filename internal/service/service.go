// Package service is the externally callable surface of the review backend.
// Every call runs the same gauntlet: offline short-circuit, payload
// validation, permission check, injected latency, injected failure, and only
// then the store. A call that fails never touches the store, so retried
// requests cannot double-apply a mutation.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pa-review-service/internal/faults"
	"pa-review-service/internal/model"
	"pa-review-service/internal/store"
)

// AuditSink receives audit events the store has durably accepted. Used to
// feed live watchers; failures to deliver are the sink's problem.
type AuditSink interface {
	Publish(caseID string, ev model.AuditEvent)
}

// Options configures a Service.
type Options struct {
	// MutatingRoles are the caller roles allowed to edit fields and submit
	// decisions. The role string itself is trusted as supplied.
	MutatingRoles []string
	// Sink, when set, is notified after each successful mutation.
	Sink AuditSink
}

// Service composes the fault injector with the case store.
type Service struct {
	store     *store.Store
	injector  faults.Injector
	canMutate map[string]bool
	sink      AuditSink
}

// New constructs the facade.
func New(st *store.Store, injector faults.Injector, opts Options) *Service {
	canMutate := make(map[string]bool, len(opts.MutatingRoles))
	for _, role := range opts.MutatingRoles {
		canMutate[role] = true
	}
	return &Service{
		store:     st,
		injector:  injector,
		canMutate: canMutate,
		sink:      opts.Sink,
	}
}

// ListCasesRequest asks for the worklist.
type ListCasesRequest struct {
	Offline bool
}

// GetCaseRequest fetches one case in full.
type GetCaseRequest struct {
	CaseID  string
	Offline bool
}

// EditFieldRequest corrects one extraction value. OldValue is the value the
// caller last saw; a mismatch means someone else got there first.
type EditFieldRequest struct {
	CaseID   string
	FieldID  string
	OldValue string
	NewValue string
	Reason   string
	User     string
	Role     string
	At       time.Time
	Offline  bool
}

// SubmitDecisionRequest records a reviewer determination.
type SubmitDecisionRequest struct {
	CaseID         string
	Decision       model.Decision
	IsOverride     bool
	OverrideReason string
	EvidenceUsed   []string
	User           string
	Role           string
	At             time.Time
	Offline        bool
}

// ListCases returns the worklist projection.
func (s *Service) ListCases(ctx context.Context, req ListCasesRequest) (items []model.CaseListItem, err error) {
	defer func() { observe("list_cases", err) }()
	if err = s.gate(ctx, req.Offline); err != nil {
		return nil, err
	}
	return s.store.List(), nil
}

// GetCase returns one case, materializing it on first access.
func (s *Service) GetCase(ctx context.Context, req GetCaseRequest) (c model.Case, err error) {
	defer func() { observe("get_case", err) }()
	if req.CaseID == "" {
		return model.Case{}, &Error{Kind: KindNotFound, Message: "case id is required"}
	}
	if err = s.gate(ctx, req.Offline); err != nil {
		return model.Case{}, err
	}
	return s.store.GetOrCreate(req.CaseID), nil
}

// EditField validates and applies a field correction.
func (s *Service) EditField(ctx context.Context, req EditFieldRequest) (c model.Case, err error) {
	defer func() { observe("edit_field", err) }()
	if req.Offline {
		return model.Case{}, offlineErr()
	}
	if err = s.requireMutate(req.Role); err != nil {
		return model.Case{}, err
	}
	if req.NewValue == "" {
		return model.Case{}, &Error{Kind: KindInvalidRequest, Message: "newValue is required"}
	}
	if req.Reason == "" {
		return model.Case{}, &Error{Kind: KindInvalidRequest, Message: "reason is required"}
	}
	if err = s.gate(ctx, false); err != nil {
		return model.Case{}, err
	}
	c, err = s.store.ApplyFieldEdit(store.FieldEdit{
		CaseID:   req.CaseID,
		FieldID:  req.FieldID,
		OldValue: req.OldValue,
		NewValue: req.NewValue,
		Reason:   req.Reason,
		User:     req.User,
		At:       req.At,
	})
	if err != nil {
		return model.Case{}, wrapStoreErr(err)
	}
	s.publish(c)
	return c, nil
}

// SubmitDecision validates and records a determination.
func (s *Service) SubmitDecision(ctx context.Context, req SubmitDecisionRequest) (c model.Case, err error) {
	defer func() { observe("submit_decision", err) }()
	if req.Offline {
		return model.Case{}, offlineErr()
	}
	if err = s.requireMutate(req.Role); err != nil {
		return model.Case{}, err
	}
	if !req.Decision.Valid() {
		return model.Case{}, &Error{Kind: KindInvalidRequest, Message: "finalDecision is required"}
	}
	if len(req.EvidenceUsed) == 0 {
		return model.Case{}, &Error{Kind: KindInvalidRequest, Message: "evidenceUsed must not be empty"}
	}
	if req.IsOverride && req.OverrideReason == "" {
		return model.Case{}, &Error{Kind: KindInvalidRequest, Message: "overrideReason is required when overriding"}
	}
	if err = s.gate(ctx, false); err != nil {
		return model.Case{}, err
	}
	c, err = s.store.ApplyDecision(store.DecisionInput{
		CaseID:         req.CaseID,
		Decision:       req.Decision,
		IsOverride:     req.IsOverride,
		OverrideReason: req.OverrideReason,
		EvidenceUsed:   req.EvidenceUsed,
		User:           req.User,
		At:             req.At,
	})
	if err != nil {
		return model.Case{}, wrapStoreErr(err)
	}
	s.publish(c)
	return c, nil
}

// gate applies the degraded-backend behavior: offline short-circuits without
// any delay, otherwise the call sleeps for the injected latency (honoring
// cancellation) and may then be failed outright. The store is never touched
// on any of these paths.
func (s *Service) gate(ctx context.Context, offline bool) error {
	if offline {
		return offlineErr()
	}
	delay := s.injector.Delay()
	injectedLatency.Observe(delay.Seconds())
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if s.injector.ShouldFail() {
		injectedFailures.Inc()
		return &Error{Kind: KindTransient, Message: "simulated upstream failure"}
	}
	return nil
}

func (s *Service) requireMutate(role string) error {
	if !s.canMutate[role] {
		return &Error{Kind: KindForbidden, Message: fmt.Sprintf("role %q may not modify cases", role)}
	}
	return nil
}

func (s *Service) publish(c model.Case) {
	if s.sink == nil || len(c.AuditTrail) == 0 {
		return
	}
	s.sink.Publish(c.CaseID, c.AuditTrail[len(c.AuditTrail)-1])
}

func offlineErr() *Error {
	return &Error{Kind: KindUnavailable, Message: "client is offline"}
}

func wrapStoreErr(err error) error {
	var nf store.NotFoundError
	if errors.As(err, &nf) {
		return &Error{Kind: KindNotFound, Message: nf.Error(), Err: err}
	}
	var cf store.ConflictError
	if errors.As(err, &cf) {
		return &Error{Kind: KindConflict, Message: cf.Error(), Err: err}
	}
	return err
}
