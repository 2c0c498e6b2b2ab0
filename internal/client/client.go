// Package client is the HTTP client for the hogar daemon, shared by the CLI
// and the terminal UI.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"

	"github.com/fentz26/hogar/internal/board"
	"github.com/fentz26/hogar/internal/controlplane"
	"github.com/fentz26/hogar/internal/models"
	"github.com/fentz26/hogar/internal/roster"
)

var codec = sonic.ConfigStd

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx reply from the daemon.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// Client wraps HTTP calls to the hogar API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := codec.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(bytes.TrimSpace(data))
		if codec.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	return codec.Unmarshal(data, out)
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

// Health returns the health payload. On a non-200 reply both the payload
// and an error are returned.
func (c *Client) Health(ctx context.Context) (*controlplane.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var health controlplane.HealthResponse
	if err := codec.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, health.Store)
	}
	return &health, nil
}

// Roster lists the configured members.
func (c *Client) Roster(ctx context.Context) ([]roster.Member, error) {
	var out []roster.Member
	return out, c.get(ctx, "/roster", nil, &out)
}

// Timeslots lists the configured slots.
func (c *Client) Timeslots(ctx context.Context) ([]string, error) {
	var out []string
	return out, c.get(ctx, "/timeslots", nil, &out)
}

// Tasks lists records for user in view, optionally filtered by status.
func (c *Client) Tasks(ctx context.Context, user string, view controlplane.View, status models.TaskStatus) ([]models.Task, error) {
	q := url.Values{}
	if user != "" {
		q.Set("user", user)
	}
	if view != "" {
		q.Set("view", string(view))
	}
	if status != "" {
		q.Set("status", string(status))
	}
	var out []models.Task
	return out, c.get(ctx, "/tasks", q, &out)
}

// TemplateRequest is the body of POST /tasks. Enum fields accept legacy
// spellings.
type TemplateRequest struct {
	User       string            `json:"user"`
	Name       string            `json:"name"`
	Recurrence string            `json:"recurrence"`
	Kind       string            `json:"kind"`
	Audience   string            `json:"audience"`
	Stock      int               `json:"stock"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// AddTemplate creates a catalog entry.
func (c *Client) AddTemplate(ctx context.Context, req TemplateRequest) (models.Task, error) {
	var out models.Task
	return out, c.post(ctx, "/tasks", req, &out)
}

func taskPath(id int, action string) string {
	return "/tasks/" + strconv.Itoa(id) + "/" + action
}

// Assign claims one unit of template id for user in slot.
func (c *Client) Assign(ctx context.Context, user string, id int, slot string) (board.Assignment, error) {
	var out board.Assignment
	body := map[string]string{"user": user, "timeslot": slot}
	return out, c.post(ctx, taskPath(id, "assign"), body, &out)
}

// Complete marks a record done.
func (c *Client) Complete(ctx context.Context, user string, id int) (models.Task, error) {
	var out models.Task
	return out, c.post(ctx, taskPath(id, "complete"), map[string]string{"user": user}, &out)
}

// Undo marks a record pending again.
func (c *Client) Undo(ctx context.Context, user string, id int) (models.Task, error) {
	var out models.Task
	return out, c.post(ctx, taskPath(id, "undo"), map[string]string{"user": user}, &out)
}

// Release hands a record back.
func (c *Client) Release(ctx context.Context, user string, id int) (board.Released, error) {
	var out board.Released
	return out, c.post(ctx, taskPath(id, "release"), map[string]string{"user": user}, &out)
}

// AdjustStock adds delta units to a stocked template.
func (c *Client) AdjustStock(ctx context.Context, user string, id, delta int) (models.Task, error) {
	var out models.Task
	body := map[string]interface{}{"user": user, "delta": delta}
	return out, c.post(ctx, taskPath(id, "stock"), body, &out)
}

// SetStock sets a stocked template's units.
func (c *Client) SetStock(ctx context.Context, user string, id, value int) (models.Task, error) {
	var out models.Task
	body := map[string]interface{}{"user": user, "set": value}
	return out, c.post(ctx, taskPath(id, "stock"), body, &out)
}

// Summary returns user's progress counts and banner.
func (c *Client) Summary(ctx context.Context, user string) (board.Summary, error) {
	var out board.Summary
	return out, c.get(ctx, "/summary", url.Values{"user": {user}}, &out)
}

// Balances returns per-template stock conservation.
func (c *Client) Balances(ctx context.Context) ([]board.Balance, error) {
	var out []board.Balance
	return out, c.get(ctx, "/balances", nil, &out)
}

// ResetDay runs the daily reset.
func (c *Client) ResetDay(ctx context.Context, user string) (controlplane.ResetResult, error) {
	var out controlplane.ResetResult
	return out, c.post(ctx, "/day/reset", map[string]string{"user": user}, &out)
}

// PreviewReset computes the reset without applying it.
func (c *Client) PreviewReset(ctx context.Context) (controlplane.ResetResult, error) {
	var out controlplane.ResetResult
	return out, c.get(ctx, "/day/preview", nil, &out)
}

// History returns archived completions visible to user.
func (c *Client) History(ctx context.Context, user, owner string, limit int) ([]models.ArchiveEntry, error) {
	q := url.Values{"user": {user}}
	if owner != "" {
		q.Set("owner", owner)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []models.ArchiveEntry
	return out, c.get(ctx, "/history", q, &out)
}
