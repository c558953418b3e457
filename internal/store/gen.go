package store

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"pa-review-service/internal/model"
)

// The generator stands in for the upstream intake pipeline: given a case id
// it fabricates member, request, documents, extractions and an AI
// recommendation. Output is keyed entirely by the case id (and the store's
// construction-time epoch), so the worklist row built at Initialize and the
// full case materialized later always agree.

func listCaseID(i int) string {
	return fmt.Sprintf("PA-%d", 10000+i)
}

func caseSeed(caseID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(caseID))
	return int64(h.Sum64())
}

var specialties = []string{
	"Cardiology", "Oncology", "Orthopedics", "Neurology",
	"Endocrinology", "Gastroenterology", "Pulmonology", "Rheumatology",
}

var firstNames = []string{
	"Maria", "James", "Aisha", "Robert", "Elena", "David",
	"Priya", "Michael", "Grace", "Samuel", "Linh", "Carmen",
}

var lastNames = []string{
	"Garcia", "Chen", "Okafor", "Johnson", "Petrov", "Smith",
	"Patel", "Brown", "Kim", "Nguyen", "Alvarez", "Weber",
}

var procedures = []model.ServiceRequest{
	{Description: "Cardiac MRI with contrast", CodeType: "CPT", Code: "75561"},
	{Description: "Lumbar spinal fusion", CodeType: "CPT", Code: "22612"},
	{Description: "PET/CT skull to thigh", CodeType: "CPT", Code: "78815"},
	{Description: "Continuous glucose monitor", CodeType: "HCPCS", Code: "K0554"},
	{Description: "Infliximab infusion", CodeType: "HCPCS", Code: "J1745"},
	{Description: "Total knee arthroplasty", CodeType: "CPT", Code: "27447"},
	{Description: "Sleep study, attended", CodeType: "CPT", Code: "95810"},
	{Description: "Transcranial magnetic stimulation", CodeType: "CPT", Code: "90867"},
}

var documentTitles = []string{
	"Clinical notes", "Imaging report", "Lab results",
	"Prior treatment history", "Referral letter", "Operative report",
}

var extractionFacts = []struct {
	label string
	value string
}{
	{"Ejection fraction", "25%"},
	{"HbA1c", "8.2%"},
	{"Failed conservative therapy", "Yes, 6 weeks PT"},
	{"BMI", "34.1"},
	{"Prior imaging", "X-ray 2024-11-02"},
	{"Symptom duration", "4 months"},
	{"Current medication", "Metoprolol 50mg BID"},
	{"Tumor stage", "T2N0M0"},
	{"Smoking status", "Former, quit 2019"},
	{"Creatinine", "1.4 mg/dL"},
}

var rationaleLines = []string{
	"Documented failure of first-line therapy.",
	"Imaging findings consistent with the requested procedure.",
	"Clinical criteria for medical necessity are met.",
	"Symptom duration exceeds the conservative-care threshold.",
	"Submitted labs fall outside the guideline range.",
	"Specialist evaluation supports the request.",
}

// summaryFor derives the worklist row for a case id. It draws exactly the
// same leading values as generateCase.
func (s *Store) summaryFor(caseID string) model.CaseListItem {
	rng := rand.New(rand.NewSource(caseSeed(caseID)))
	specialty, member, request, receivedAt := s.drawSummary(rng)
	return model.CaseListItem{
		CaseID:             caseID,
		Status:             model.StatusNew,
		Specialty:          specialty,
		MemberName:         member.Name,
		RequestDescription: request.Description,
		ReceivedAt:         receivedAt,
		SLADeadline:        receivedAt.Add(s.slaWindow),
	}
}

// drawSummary consumes the leading draws shared by summaryFor and
// generateCase. The draw order is part of the contract between the two.
func (s *Store) drawSummary(rng *rand.Rand) (string, model.Member, model.ServiceRequest, time.Time) {
	specialty := specialties[rng.Intn(len(specialties))]
	member := model.Member{
		ID:   fmt.Sprintf("M-%06d", rng.Intn(1_000_000)),
		Name: firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
		DateOfBirth: time.Date(1940+rng.Intn(61), time.Month(1+rng.Intn(12)),
			1+rng.Intn(28), 0, 0, 0, 0, time.UTC),
	}
	request := procedures[rng.Intn(len(procedures))]
	receivedAt := s.epoch.Add(-time.Duration(rng.Intn(48*60)) * time.Minute).Truncate(time.Minute)
	return specialty, member, request, receivedAt
}

func (s *Store) generateCase(caseID string) model.Case {
	rng := rand.New(rand.NewSource(caseSeed(caseID)))
	specialty, member, request, receivedAt := s.drawSummary(rng)

	docs := make([]model.Document, 1+rng.Intn(3))
	for i := range docs {
		docs[i] = model.Document{
			ID:        fmt.Sprintf("%s-doc%d", caseID, i+1),
			Title:     documentTitles[rng.Intn(len(documentTitles))],
			PageCount: 2 + rng.Intn(24),
		}
	}

	perm := rng.Perm(len(extractionFacts))
	exts := make([]model.Extraction, 3+rng.Intn(4))
	for i := range exts {
		fact := extractionFacts[perm[i]]
		doc := docs[rng.Intn(len(docs))]
		exts[i] = model.Extraction{
			FieldID:    fmt.Sprintf("f%d", i+1),
			Label:      fact.label,
			Value:      fact.value,
			Confidence: float64(55+rng.Intn(45)) / 100,
			Source:     model.SourceRef{DocumentID: doc.ID, Page: 1 + rng.Intn(doc.PageCount)},
		}
	}

	rec := model.AIRecommendation{
		Decision:  model.DecisionApproved,
		Rationale: []string{},
	}
	switch roll := rng.Float64(); {
	case roll < 0.5:
	case roll < 0.8:
		rec.Decision = model.DecisionDenied
	default:
		rec.Decision = model.DecisionNeedsInfo
	}
	for _, i := range rng.Perm(len(rationaleLines))[:2+rng.Intn(2)] {
		rec.Rationale = append(rec.Rationale, rationaleLines[i])
	}
	for i := 0; i < 1+rng.Intn(3) && i < len(exts); i++ {
		rec.EvidenceFieldIDs = append(rec.EvidenceFieldIDs, exts[i].FieldID)
	}

	c := model.Case{
		CaseID:           caseID,
		Status:           model.StatusNew,
		Specialty:        specialty,
		Member:           member,
		Request:          request,
		ReceivedAt:       receivedAt,
		SLADeadline:      receivedAt.Add(s.slaWindow),
		Documents:        docs,
		Extractions:      exts,
		AIRecommendation: rec,
	}
	s.appendEventLocked(&c, model.AuditEvent{
		Action: model.ActionCaseOpened,
		At:     receivedAt,
		User:   "system",
	})
	return c
}
