// Package board is the interface to the external task-board collaborator.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"docketline/internal/config"
	"docketline/internal/domain"
)

// ActionItemsGroup is the board group actions are filed under. It is created
// on first use.
const ActionItemsGroup = "Action Items"

type Task struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Group       string `json:"-"`
	DueDate     string `json:"due_date,omitempty"`
	Priority    string `json:"priority,omitempty"`
}

type Client interface {
	CreateTask(ctx context.Context, t Task) (string, error)
	UpdateTaskStatus(ctx context.Context, taskID, status string) error
}

// MapActionStatus translates an action lifecycle status into the board's
// three-state vocabulary.
func MapActionStatus(status string) string {
	switch status {
	case domain.ActionStatusDraft, domain.ActionStatusReview, domain.ActionStatusFinal, domain.ActionStatusFile:
		return "in-progress"
	case domain.ActionStatusServed, domain.ActionStatusConfirmed:
		return "done"
	}
	return "not-started"
}

// HTTPClient talks to a board over its JSON API.
type HTTPClient struct {
	BaseURL string
	BoardID string
	APIKey  string
	HTTP    *http.Client

	mu     sync.Mutex
	groups map[string]string
}

// NewFromConfig returns a client for the configured board, or nil when no
// board is configured.
func NewFromConfig(cfg config.BoardConfig) *HTTPClient {
	if cfg.BaseURL == "" || cfg.BoardID == "" {
		return nil
	}
	return &HTTPClient{
		BaseURL: cfg.BaseURL,
		BoardID: cfg.BoardID,
		APIKey:  cfg.APIKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) CreateTask(ctx context.Context, t Task) (string, error) {
	groupID, err := c.ensureGroup(ctx, t.Group)
	if err != nil {
		return "", err
	}
	payload := struct {
		Task
		GroupID string `json:"group_id"`
	}{Task: t, GroupID: groupID}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/boards/%s/tasks", c.BoardID), payload, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("board returned no task id")
	}
	return out.ID, nil
}

func (c *HTTPClient) UpdateTaskStatus(ctx context.Context, taskID, status string) error {
	payload := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/boards/%s/tasks/%s", c.BoardID, taskID), payload, nil)
}

func (c *HTTPClient) ensureGroup(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = ActionItemsGroup
	}
	c.mu.Lock()
	if id, ok := c.groups[name]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/boards/%s/groups", c.BoardID), map[string]string{"name": name}, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("board returned no group id")
	}
	c.mu.Lock()
	if c.groups == nil {
		c.groups = map[string]string{}
	}
	c.groups[name] = out.ID
	c.mu.Unlock()
	return out.ID, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("board %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
