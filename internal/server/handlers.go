package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pa-review-service/internal/model"
	"pa-review-service/internal/service"
)

// Callers assert identity and degraded-network state through headers. The
// values are trusted as supplied; this backend does no authentication.
func callerIdentity(r *http.Request) (user, role string) {
	user = r.Header.Get("X-User")
	if user == "" {
		user = "anonymous"
	}
	role = r.Header.Get("X-Role")
	if role == "" {
		role = "viewer"
	}
	return user, role
}

func offlineAsserted(r *http.Request) bool {
	switch r.Header.Get("X-Simulate-Offline") {
	case "1", "true":
		return true
	}
	return false
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.ListCases(r.Context(), service.ListCasesRequest{
		Offline: offlineAsserted(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, items)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.GetCase(r.Context(), service.GetCaseRequest{
		CaseID:  chi.URLParam(r, "caseID"),
		Offline: offlineAsserted(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, c)
}

type editFieldReq struct {
	OldValue string    `json:"oldValue"`
	NewValue string    `json:"newValue"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at,omitempty"`
}

func (s *Server) handleEditField(w http.ResponseWriter, r *http.Request) {
	var req editFieldReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body","kind":"INVALID_REQUEST"}`, http.StatusBadRequest)
		return
	}
	user, role := callerIdentity(r)
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	c, err := s.svc.EditField(r.Context(), service.EditFieldRequest{
		CaseID:   chi.URLParam(r, "caseID"),
		FieldID:  chi.URLParam(r, "fieldID"),
		OldValue: req.OldValue,
		NewValue: req.NewValue,
		Reason:   req.Reason,
		User:     user,
		Role:     role,
		At:       at,
		Offline:  offlineAsserted(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, c)
}

type decisionReq struct {
	Decision       string    `json:"decision"`
	IsOverride     bool      `json:"isOverride"`
	OverrideReason string    `json:"overrideReason"`
	EvidenceUsed   []string  `json:"evidenceUsed"`
	At             time.Time `json:"at,omitempty"`
}

func (s *Server) handleSubmitDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body","kind":"INVALID_REQUEST"}`, http.StatusBadRequest)
		return
	}
	user, role := callerIdentity(r)
	at := req.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	c, err := s.svc.SubmitDecision(r.Context(), service.SubmitDecisionRequest{
		CaseID:         chi.URLParam(r, "caseID"),
		Decision:       model.Decision(req.Decision),
		IsOverride:     req.IsOverride,
		OverrideReason: req.OverrideReason,
		EvidenceUsed:   req.EvidenceUsed,
		User:           user,
		Role:           role,
		At:             at,
		Offline:        offlineAsserted(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, c)
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var se *service.Error
	if errors.As(err, &se) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(se.Kind.HTTPStatus())
		_ = json.NewEncoder(w).Encode(errorBody{Error: se.Message, Kind: string(se.Kind)})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		// The caller went away; nothing useful to write.
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}
