package store

import "pa-review-service/internal/model"

// The store owns the only mutable copy of each case. Everything handed to
// callers is a deep clone so no caller can reach back into store state.

func cloneCase(c model.Case) model.Case {
	cp := c
	cp.Documents = append([]model.Document(nil), c.Documents...)
	cp.Extractions = append([]model.Extraction(nil), c.Extractions...)
	cp.AIRecommendation = cloneRecommendation(c.AIRecommendation)
	cp.AuditTrail = make([]model.AuditEvent, len(c.AuditTrail))
	for i, ev := range c.AuditTrail {
		cp.AuditTrail[i] = cloneEvent(ev)
	}
	return cp
}

func cloneRecommendation(r model.AIRecommendation) model.AIRecommendation {
	cp := r
	cp.Rationale = append([]string(nil), r.Rationale...)
	cp.EvidenceFieldIDs = append([]string(nil), r.EvidenceFieldIDs...)
	return cp
}

func cloneEvent(ev model.AuditEvent) model.AuditEvent {
	cp := ev
	if ev.FieldEdit != nil {
		fe := *ev.FieldEdit
		cp.FieldEdit = &fe
	}
	if ev.Decision != nil {
		d := *ev.Decision
		d.EvidenceUsed = append([]string(nil), ev.Decision.EvidenceUsed...)
		cp.Decision = &d
	}
	return cp
}
