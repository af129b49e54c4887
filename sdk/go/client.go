package docketlinesdk

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
)

// Client is a minimal Docketline HTTP API client.
type Client struct {
	BaseURL    string
	MatterID   string
	ActorID    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, matterID string) *Client {
	return &Client{
		BaseURL:  baseURL,
		MatterID: matterID,
		Timeout:  10 * time.Second,
	}
}

// Matter represents the API matter model.
type Matter struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CaseNumber   string `json:"case_number,omitempty"`
	Court        string `json:"court,omitempty"`
	Jurisdiction string `json:"jurisdiction"`
	Status       string `json:"status"`
}

// Filing represents an ingested document (partial).
type Filing struct {
	ID         string  `json:"id"`
	MatterID   string  `json:"matter_id"`
	DocType    string  `json:"doc_type"`
	DocSubtype *string `json:"doc_subtype,omitempty"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	FileName   string  `json:"file_name"`
}

// Deadline represents a computed due date.
type Deadline struct {
	ID          string  `json:"id"`
	MatterID    string  `json:"matter_id"`
	Title       string  `json:"title"`
	DueDate     *string `json:"due_date,omitempty"`
	Criticality string  `json:"criticality"`
	Status      string  `json:"status"`
}

// Action represents a work item derived from a deadline.
type Action struct {
	ID            string  `json:"id"`
	MatterID      string  `json:"matter_id"`
	DeadlineID    *string `json:"deadline_id,omitempty"`
	Title         string  `json:"title"`
	Type          string  `json:"type"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       *string `json:"due_date,omitempty"`
	DaysRemaining int     `json:"days_remaining"`
}

// Draft represents a generated first-draft document.
type Draft struct {
	ID           string `json:"id"`
	MatterID     string `json:"matter_id"`
	TemplateType string `json:"template_type"`
	Title        string `json:"title"`
	Content      string `json:"content"`
}

// IngestResult is the outcome of one filing ingestion.
type IngestResult struct {
	Filing    Filing     `json:"filing"`
	Deadlines []Deadline `json:"deadlines"`
	ActionIDs []string   `json:"action_ids"`
}

// Event represents a docket log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	MatterID   string         `json:"matter_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Payload    map[string]any `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// CreateMatter creates a matter and sets it as the client's current matter.
func (c *Client) CreateMatter(ctx context.Context, title, caseNumber, jurisdiction string) (Matter, error) {
	body := map[string]any{"title": title}
	if caseNumber != "" {
		body["case_number"] = caseNumber
	}
	if jurisdiction != "" {
		body["jurisdiction"] = jurisdiction
	}
	var resp Matter
	if err := c.do(ctx, http.MethodPost, "v0/matters", body, &resp); err != nil {
		return Matter{}, err
	}
	c.MatterID = resp.ID
	return resp, nil
}

// IngestFiling submits extracted document text for the full pipeline.
func (c *Client) IngestFiling(ctx context.Context, fileName, text string) (IngestResult, error) {
	body := map[string]any{
		"file_name": fileName,
		"text":      text,
	}
	var resp IngestResult
	err := c.do(ctx, http.MethodPost, c.matterPath("filings"), body, &resp)
	return resp, err
}

// Deadlines returns the matter's deadlines, optionally filtered by status.
func (c *Client) Deadlines(ctx context.Context, status string) ([]Deadline, error) {
	endpoint := c.matterPath("deadlines")
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Deadline
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Actions returns the matter's actions, optionally filtered by status.
func (c *Client) Actions(ctx context.Context, status string) ([]Action, error) {
	endpoint := c.matterPath("actions")
	if status != "" {
		endpoint += "?status=" + url.QueryEscape(status)
	}
	var resp []Action
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// NextActions previews candidate actions without persisting them.
func (c *Client) NextActions(ctx context.Context) ([]Action, error) {
	var resp []Action
	err := c.do(ctx, http.MethodGet, c.matterPath("actions/next"), nil, &resp)
	return resp, err
}

// GenerateActions creates actions from open deadlines and returns their ids.
func (c *Client) GenerateActions(ctx context.Context) ([]string, error) {
	var resp []string
	err := c.do(ctx, http.MethodPost, c.matterPath("actions/generate"), map[string]any{}, &resp)
	return resp, err
}

// SetActionStatus moves an action through its lifecycle.
func (c *Client) SetActionStatus(ctx context.Context, actionID, status string) (Action, error) {
	body := map[string]any{"status": status}
	var resp Action
	endpoint := c.matterPath(fmt.Sprintf("actions/%s/status", url.PathEscape(actionID)))
	err := c.do(ctx, http.MethodPatch, endpoint, body, &resp)
	return resp, err
}

// GenerateDraft asks for a first draft; the result is nil when no template
// applies to the action.
func (c *Client) GenerateDraft(ctx context.Context, actionID string) (*Draft, error) {
	var resp struct {
		Draft *Draft `json:"draft"`
	}
	endpoint := c.matterPath(fmt.Sprintf("actions/%s/draft", url.PathEscape(actionID)))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{}, &resp)
	return resp.Draft, err
}

// Events returns recent docket events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := c.matterPath("events")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.ActorID != "" {
		req.Header.Set("X-Actor-Id", c.ActorID)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) matterPath(p string) string {
	matter := url.PathEscape(c.MatterID)
	return fmt.Sprintf("v0/matters/%s/%s", matter, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
