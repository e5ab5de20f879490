package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xnox-me/Streamin/internal/dispatch"
	"github.com/xnox-me/Streamin/internal/interaction"
	"github.com/xnox-me/Streamin/internal/status"
)

type stubFetcher struct {
	streams   status.StreamList
	platforms status.PlatformList
	err       error
}

func (s *stubFetcher) FetchStreams(context.Context) (status.StreamList, error) {
	return s.streams, s.err
}

func (s *stubFetcher) FetchPlatforms(context.Context) (status.PlatformList, error) {
	return s.platforms, s.err
}

func newTestServer(fetcher dispatch.StatusFetcher, opts ...ServerOption) *Server {
	return NewServer(":0", dispatch.NewDispatcher(fetcher, nil), opts...)
}

func postWebhook(t *testing.T, server *Server, payload string) (*httptest.ResponseRecorder, webhookResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)

	var resp webhookResponse
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestWebhookStreamStatus(t *testing.T) {
	server := newTestServer(&stubFetcher{streams: status.StreamList{
		{ID: "s1", Status: status.StreamActive},
		{ID: "s2", Status: status.StreamInactive},
	}})

	rec, resp := postWebhook(t, server, `{
		"next_action": "action_get_stream_status",
		"tracker": {"sender_id": "alice", "latest_message": {"text": "are you live?", "intent": {"name": "ask_stream_status"}}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(resp.Responses) != 1 || !strings.Contains(resp.Responses[0].Text, "1 active stream(s)") {
		t.Fatalf("unexpected responses: %+v", resp.Responses)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
}

func TestWebhookCollectFeedbackSetsSlot(t *testing.T) {
	server := newTestServer(&stubFetcher{})

	rec, resp := postWebhook(t, server, `{
		"next_action": "action_collect_feedback",
		"tracker": {"sender_id": "bob", "latest_message": {"text": "", "intent": {"name": "give_feedback"}}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(resp.Responses) != 1 {
		t.Fatalf("expected a feedback prompt, got %+v", resp.Responses)
	}
	if len(resp.Events) != 1 || resp.Events[0].Event != "slot" || resp.Events[0].Name != "collecting_feedback" {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
	if resp.Events[0].Value != true {
		t.Fatalf("expected collecting_feedback=true, got %v", resp.Events[0].Value)
	}
}

func TestWebhookLogInteractionProducesNoMessage(t *testing.T) {
	server := newTestServer(&stubFetcher{})

	rec, resp := postWebhook(t, server, `{
		"next_action": "action_log_user_interaction",
		"tracker": {"sender_id": "carol", "latest_message": {"text": "hi", "intent": {"name": "greet"}}}
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if len(resp.Responses) != 0 {
		t.Fatalf("expected no responses, got %+v", resp.Responses)
	}
	if len(resp.Events) != 1 || resp.Events[0].Name != "last_interaction" || resp.Events[0].Value != "greet" {
		t.Fatalf("unexpected events: %+v", resp.Events)
	}
}

func TestWebhookBadRequests(t *testing.T) {
	server := newTestServer(&stubFetcher{})

	t.Run("malformed body", func(t *testing.T) {
		rec, _ := postWebhook(t, server, `{not json`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("missing next_action", func(t *testing.T) {
		rec, _ := postWebhook(t, server, `{"tracker": {"sender_id": "x"}}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
		rec := httptest.NewRecorder()
		server.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
}

func TestActionsListing(t *testing.T) {
	server := newTestServer(&stubFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/actions", nil)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var actions []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &actions); err != nil {
		t.Fatalf("decode actions: %v", err)
	}
	if len(actions) != 8 {
		t.Fatalf("expected 8 actions, got %d", len(actions))
	}
	for _, action := range actions {
		if !strings.HasPrefix(action.Name, "action_") {
			t.Fatalf("unexpected action name: %s", action.Name)
		}
	}
}

func TestInteractionEndpointsRequireAuth(t *testing.T) {
	store := interaction.NewMemoryStore()
	queue := interaction.NewMemoryQueue(8)
	svc := interaction.NewService(store, queue, 3)
	server := newTestServer(&stubFetcher{}, WithAuthToken("secret"), WithInteractionService(svc))

	if _, err := svc.Record(context.Background(), interaction.RecordRequest{SenderID: "alice", Intent: "get_stream_status"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/interactions", nil)
		rec := httptest.NewRecorder()
		server.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("valid token lists events", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/interactions?intent=get_stream_status", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		server.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var events []*interaction.Event
		if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
			t.Fatalf("decode events: %v", err)
		}
		if len(events) != 1 || events[0].SenderID != "alice" {
			t.Fatalf("unexpected events: %+v", events)
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/interactions/stats", nil)
		req.Header.Set("Authorization", "Bearer secret")
		rec := httptest.NewRecorder()
		server.routes().ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var stats interaction.EventStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.Total != 1 {
			t.Fatalf("unexpected stats: %+v", stats)
		}
	})
}
