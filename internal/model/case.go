package model

import "time"

// Member identifies the plan member the authorization request is for.
type Member struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth time.Time `json:"dateOfBirth"`
}

// ServiceRequest describes the service being authorized.
type ServiceRequest struct {
	Description string `json:"description"`
	CodeType    string `json:"codeType"`
	Code        string `json:"code"`
}

// Document is metadata for a submitted clinical document. Content rendering
// happens elsewhere; extractions reference documents by id and page.
type Document struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	PageCount int    `json:"pageCount"`
}

// SourceRef points at the document page an extraction was derived from.
type SourceRef struct {
	DocumentID string `json:"documentId"`
	Page       int    `json:"page"`
}

// Extraction is one AI-derived clinical fact. Confidence is fixed at
// generation time; only Value changes, via the edit operation.
type Extraction struct {
	FieldID    string    `json:"fieldId"`
	Label      string    `json:"label"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Source     SourceRef `json:"source"`
}

// AIRecommendation is the model's suggested determination. Immutable once a
// case is created. EvidenceFieldIDs reference the case's extractions.
type AIRecommendation struct {
	Decision         Decision `json:"decision"`
	Rationale        []string `json:"rationale"`
	EvidenceFieldIDs []string `json:"evidenceFieldIds"`
}

// Case is a prior-authorization request under review.
type Case struct {
	CaseID           string           `json:"caseId"`
	Status           CaseStatus       `json:"status"`
	Specialty        string           `json:"specialty"`
	Member           Member           `json:"member"`
	Request          ServiceRequest   `json:"request"`
	ReceivedAt       time.Time        `json:"receivedAt"`
	SLADeadline      time.Time        `json:"slaDeadline"`
	Documents        []Document       `json:"documents"`
	Extractions      []Extraction     `json:"extractions"`
	AIRecommendation AIRecommendation `json:"aiRecommendation"`
	AuditTrail       []AuditEvent     `json:"auditTrail"`
}

// ExtractionIndex returns the position of the extraction with the given
// fieldId, or -1 when absent.
func (c Case) ExtractionIndex(fieldID string) int {
	for i := range c.Extractions {
		if c.Extractions[i].FieldID == fieldID {
			return i
		}
	}
	return -1
}

// CaseListItem is the read projection used by the worklist view.
type CaseListItem struct {
	CaseID             string     `json:"caseId"`
	Status             CaseStatus `json:"status"`
	Specialty          string     `json:"specialty"`
	MemberName         string     `json:"memberName"`
	RequestDescription string     `json:"requestDescription"`
	ReceivedAt         time.Time  `json:"receivedAt"`
	SLADeadline        time.Time  `json:"slaDeadline"`
}

// ListItemOf projects a case into its worklist row.
func ListItemOf(c Case) CaseListItem {
	return CaseListItem{
		CaseID:             c.CaseID,
		Status:             c.Status,
		Specialty:          c.Specialty,
		MemberName:         c.Member.Name,
		RequestDescription: c.Request.Description,
		ReceivedAt:         c.ReceivedAt,
		SLADeadline:        c.SLADeadline,
	}
}
