package streamin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sync"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. It is intentionally short to avoid hanging network calls.
const DefaultHTTPTimeout = 15 * time.Second

// Client wraps the HTTP interactions with the StreaminBot action server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	mu          sync.RWMutex
	accessToken string
}

// TriggerRequest describes an action invocation on behalf of a conversation.
type TriggerRequest struct {
	Action       string
	SenderID     string
	MessageText  string
	LatestIntent string
}

// SlotUpdate is a conversation state change proposed by the server.
type SlotUpdate struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// ActionResult aggregates the messages and slot updates returned by a dispatch.
type ActionResult struct {
	Messages []string
	Slots    []SlotUpdate
}

// InteractionEvent mirrors a recorded interaction as returned by the admin API.
type InteractionEvent struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Intent    string `json:"intent"`
	Message   string `json:"message,omitempty"`
	Reply     string `json:"reply,omitempty"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// InteractionStats aggregates interaction counters.
type InteractionStats struct {
	Total     int            `json:"total"`
	Pending   int            `json:"pending"`
	Archiving int            `json:"archiving"`
	Archived  int            `json:"archived"`
	Failed    int            `json:"failed"`
	ByIntent  map[string]int `json:"by_intent,omitempty"`
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("streamin api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the action server API. When httpClient is
// nil, a default client with a sensible timeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// SetAccessToken stores the token used for the admin endpoints.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
}

// AccessToken returns the currently stored token string.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

// Trigger invokes an action through the webhook endpoint and returns the
// rendered messages plus any proposed slot updates.
func (c *Client) Trigger(ctx context.Context, req TriggerRequest) (ActionResult, error) {
	if req.Action == "" {
		return ActionResult{}, errors.New("streamin: action name is required")
	}

	payload := map[string]any{
		"next_action": req.Action,
		"sender_id":   req.SenderID,
		"tracker": map[string]any{
			"sender_id": req.SenderID,
			"latest_message": map[string]any{
				"text":   req.MessageText,
				"intent": map[string]any{"name": req.LatestIntent},
			},
		},
	}

	var raw struct {
		Events []struct {
			Event string `json:"event"`
			Name  string `json:"name"`
			Value any    `json:"value"`
		} `json:"events"`
		Responses []struct {
			Text string `json:"text"`
		} `json:"responses"`
	}
	if err := c.post(ctx, "/webhook", payload, &raw, false); err != nil {
		return ActionResult{}, err
	}

	result := ActionResult{
		Messages: make([]string, 0, len(raw.Responses)),
		Slots:    make([]SlotUpdate, 0, len(raw.Events)),
	}
	for _, response := range raw.Responses {
		result.Messages = append(result.Messages, response.Text)
	}
	for _, event := range raw.Events {
		if event.Event != "slot" {
			continue
		}
		result.Slots = append(result.Slots, SlotUpdate{Name: event.Name, Value: event.Value})
	}
	return result, nil
}

// Actions returns the names of the actions registered on the server.
func (c *Client) Actions(ctx context.Context) ([]string, error) {
	var raw []struct {
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/actions", &raw, false); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(raw))
	for _, entry := range raw {
		names = append(names, entry.Name)
	}
	return names, nil
}

// Health checks the server health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/healthz", nil, false)
}

// ListInteractions fetches recorded interactions through the admin API.
// The access token must be set when the server requires authentication.
func (c *Client) ListInteractions(ctx context.Context, limit int) ([]InteractionEvent, error) {
	endpoint := "/api/v1/interactions"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var events []InteractionEvent
	if err := c.get(ctx, endpoint, &events, true); err != nil {
		return nil, err
	}
	return events, nil
}

// InteractionStats fetches aggregated interaction counters.
func (c *Client) InteractionStats(ctx context.Context) (InteractionStats, error) {
	var stats InteractionStats
	if err := c.get(ctx, "/api/v1/interactions/stats", &stats, true); err != nil {
		return InteractionStats{}, err
	}
	return stats, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any, out any, withAuth bool) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body), withAuth)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, endpoint string, out any, withAuth bool) error {
	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil, withAuth)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, withAuth bool) (*http.Request, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, parsed.Path), RawQuery: parsed.RawQuery}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if withAuth {
		if token := c.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
	}

	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
