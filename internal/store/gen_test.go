package store

import (
	"testing"

	"pa-review-service/internal/model"
)

func TestGeneratedCaseShape(t *testing.T) {
	s := newTestStore(5)
	s.Initialize()

	for _, id := range []string{"PA-10000", "PA-10001", "PA-55555", "PA-90210"} {
		c := s.GetOrCreate(id)

		if c.CaseID != id {
			t.Fatalf("case id mismatch: %s", c.CaseID)
		}
		if c.Status != model.StatusNew {
			t.Fatalf("%s: fresh case status %s", id, c.Status)
		}
		if len(c.Documents) == 0 {
			t.Fatalf("%s: no documents", id)
		}
		if len(c.Extractions) < 3 {
			t.Fatalf("%s: only %d extractions", id, len(c.Extractions))
		}
		if !c.SLADeadline.Equal(c.ReceivedAt.Add(s.slaWindow)) {
			t.Fatalf("%s: deadline %v not receivedAt+%v", id, c.SLADeadline, s.slaWindow)
		}

		docs := make(map[string]model.Document, len(c.Documents))
		for _, d := range c.Documents {
			if d.PageCount <= 0 {
				t.Fatalf("%s: document %s has %d pages", id, d.ID, d.PageCount)
			}
			docs[d.ID] = d
		}

		seen := make(map[string]bool, len(c.Extractions))
		for _, ex := range c.Extractions {
			if seen[ex.FieldID] {
				t.Fatalf("%s: duplicate field id %s", id, ex.FieldID)
			}
			seen[ex.FieldID] = true
			if ex.Confidence < 0 || ex.Confidence > 1 {
				t.Fatalf("%s: confidence %v outside [0,1]", id, ex.Confidence)
			}
			doc, ok := docs[ex.Source.DocumentID]
			if !ok {
				t.Fatalf("%s: extraction %s references unknown document %s", id, ex.FieldID, ex.Source.DocumentID)
			}
			if ex.Source.Page < 1 || ex.Source.Page > doc.PageCount {
				t.Fatalf("%s: extraction %s page %d outside document", id, ex.FieldID, ex.Source.Page)
			}
		}

		if !c.AIRecommendation.Decision.Valid() {
			t.Fatalf("%s: recommendation decision %q", id, c.AIRecommendation.Decision)
		}
		if len(c.AIRecommendation.Rationale) == 0 {
			t.Fatalf("%s: recommendation without rationale", id)
		}
		if len(c.AIRecommendation.EvidenceFieldIDs) == 0 {
			t.Fatalf("%s: recommendation without evidence", id)
		}
		for _, fid := range c.AIRecommendation.EvidenceFieldIDs {
			if !seen[fid] {
				t.Fatalf("%s: evidence %s does not reference an extraction", id, fid)
			}
		}

		if len(c.AuditTrail) != 1 || c.AuditTrail[0].Action != model.ActionCaseOpened {
			t.Fatalf("%s: expected a single CASE_OPENED event, got %+v", id, c.AuditTrail)
		}
	}
}

func TestWorklistIDsAreStable(t *testing.T) {
	a := newTestStore(10)
	a.Initialize()
	b := newTestStore(10)
	b.Initialize()

	la, lb := a.List(), b.List()
	for i := range la {
		if la[i].CaseID != lb[i].CaseID {
			t.Fatalf("row %d: %s != %s", i, la[i].CaseID, lb[i].CaseID)
		}
	}
	if la[0].CaseID != "PA-10000" {
		t.Fatalf("unexpected first worklist id %s", la[0].CaseID)
	}
}
