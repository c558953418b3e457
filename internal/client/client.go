// Package client is a typed HTTP client for the review API. Failures come
// back as *service.Error so callers (and the retry wrapper) classify by
// kind, never by message text.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pa-review-service/internal/model"
	"pa-review-service/internal/service"
)

// Options tunes a Client.
type Options struct {
	// HTTPClient overrides the underlying transport.
	HTTPClient *http.Client
	// User and Role are asserted on every request.
	User string
	Role string
	// Offline marks every request as issued while offline.
	Offline bool
}

// Client talks to one review API instance.
type Client struct {
	base    string
	http    *http.Client
	user    string
	role    string
	offline bool
}

// New constructs a client for the API at baseURL.
func New(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    hc,
		user:    opts.User,
		role:    opts.Role,
		offline: opts.Offline,
	}
}

// ListCases fetches the worklist.
func (c *Client) ListCases(ctx context.Context) ([]model.CaseListItem, error) {
	var items []model.CaseListItem
	err := c.do(ctx, http.MethodGet, "/api/cases", nil, &items)
	return items, err
}

// GetCase fetches one case in full.
func (c *Client) GetCase(ctx context.Context, caseID string) (model.Case, error) {
	var out model.Case
	err := c.do(ctx, http.MethodGet, "/api/cases/"+url.PathEscape(caseID), nil, &out)
	return out, err
}

// EditFieldInput is the payload for EditField.
type EditFieldInput struct {
	OldValue string    `json:"oldValue"`
	NewValue string    `json:"newValue"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at,omitempty"`
}

// EditField submits a field correction.
func (c *Client) EditField(ctx context.Context, caseID, fieldID string, in EditFieldInput) (model.Case, error) {
	var out model.Case
	path := "/api/cases/" + url.PathEscape(caseID) + "/extractions/" + url.PathEscape(fieldID)
	err := c.do(ctx, http.MethodPost, path, in, &out)
	return out, err
}

// DecisionInput is the payload for SubmitDecision.
type DecisionInput struct {
	Decision       model.Decision `json:"decision"`
	IsOverride     bool           `json:"isOverride"`
	OverrideReason string         `json:"overrideReason,omitempty"`
	EvidenceUsed   []string       `json:"evidenceUsed"`
	At             time.Time      `json:"at,omitempty"`
}

// SubmitDecision records a determination.
func (c *Client) SubmitDecision(ctx context.Context, caseID string, in DecisionInput) (model.Case, error) {
	var out model.Case
	err := c.do(ctx, http.MethodPost, "/api/cases/"+url.PathEscape(caseID)+"/decision", in, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-User", c.user)
	}
	if c.role != "" {
		req.Header.Set("X-Role", c.role)
	}
	if c.offline {
		req.Header.Set("X-Simulate-Offline", "1")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &body)

	msg := body.Error
	if msg == "" {
		msg = fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if k := service.Kind(body.Kind); k.Valid() {
		return service.NewError(k, msg)
	}
	// Untyped server failure; treat plain 500s as transient so the retry
	// wrapper gives the degraded backend another chance.
	if resp.StatusCode == http.StatusInternalServerError {
		return service.NewError(service.KindTransient, msg)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}
