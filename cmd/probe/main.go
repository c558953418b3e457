package main

import (
	"context"
	"flag"
	"log"
	"time"

	"pa-review-service/internal/client"
	"pa-review-service/internal/model"
	"pa-review-service/internal/retry"
)

// Probe drives a full review round-trip against a running API through the
// retrying client: list the worklist, open a case, correct one extraction,
// then submit the AI-recommended decision. Handy for watching the injected
// failures and the backoff behavior from the client side.
func main() {
	var (
		addr        string
		caseID      string
		user        string
		role        string
		baseDelay   time.Duration
		maxAttempts int
	)
	flag.StringVar(&addr, "addr", "http://localhost:8090", "API base URL")
	flag.StringVar(&caseID, "case", "", "case id (default: first worklist case)")
	flag.StringVar(&user, "user", "probe", "user asserted on requests")
	flag.StringVar(&role, "role", "reviewer", "role asserted on requests")
	flag.DurationVar(&baseDelay, "base-delay", 500*time.Millisecond, "first backoff wait")
	flag.IntVar(&maxAttempts, "max-attempts", 4, "attempt budget per call")
	flag.Parse()

	api := client.New(addr, client.Options{User: user, Role: role})
	policy := retry.Policy{BaseDelay: baseDelay, MaxAttempts: maxAttempts}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	items, err := retry.Do(ctx, policy, func(ctx context.Context) ([]model.CaseListItem, error) {
		return api.ListCases(ctx)
	})
	if err != nil {
		log.Fatalf("list cases: %v", err)
	}
	log.Printf("worklist has %d cases", len(items))

	if caseID == "" {
		if len(items) == 0 {
			log.Fatal("worklist is empty and no -case given")
		}
		caseID = items[0].CaseID
	}

	c, err := retry.Do(ctx, policy, func(ctx context.Context) (model.Case, error) {
		return api.GetCase(ctx, caseID)
	})
	if err != nil {
		log.Fatalf("get case %s: %v", caseID, err)
	}
	log.Printf("case %s: status=%s specialty=%s extractions=%d audit=%d",
		c.CaseID, c.Status, c.Specialty, len(c.Extractions), len(c.AuditTrail))

	if len(c.Extractions) == 0 {
		log.Fatalf("case %s has no extractions to edit", caseID)
	}
	target := c.Extractions[0]
	edit := client.EditFieldInput{
		OldValue: target.Value,
		NewValue: target.Value + " (verified)",
		Reason:   "probe verification pass",
	}
	c, err = retry.Do(ctx, policy, func(ctx context.Context) (model.Case, error) {
		return api.EditField(ctx, caseID, target.FieldID, edit)
	})
	if err != nil {
		log.Fatalf("edit field %s: %v", target.FieldID, err)
	}
	log.Printf("edited %s (%s): %q -> %q", target.FieldID, target.Label,
		edit.OldValue, edit.NewValue)

	evidence := c.AIRecommendation.EvidenceFieldIDs
	if len(evidence) == 0 {
		evidence = []string{target.FieldID}
	}
	decision := client.DecisionInput{
		Decision:     c.AIRecommendation.Decision,
		EvidenceUsed: evidence,
	}
	c, err = retry.Do(ctx, policy, func(ctx context.Context) (model.Case, error) {
		return api.SubmitDecision(ctx, caseID, decision)
	})
	if err != nil {
		log.Fatalf("submit decision: %v", err)
	}
	log.Printf("decision %s recorded: status=%s audit=%d",
		decision.Decision, c.Status, len(c.AuditTrail))
}
