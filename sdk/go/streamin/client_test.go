package streamin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTriggerParsesResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webhook" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload["next_action"] != "action_collect_feedback" {
			t.Errorf("unexpected next_action: %v", payload["next_action"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"events": [{"event": "slot", "name": "collecting_feedback", "value": true}],
			"responses": [{"text": "tell us what you think"}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Trigger(context.Background(), TriggerRequest{
		Action:       "action_collect_feedback",
		SenderID:     "alice",
		LatestIntent: "give_feedback",
	})
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0] != "tell us what you think" {
		t.Fatalf("unexpected messages: %+v", result.Messages)
	}
	if len(result.Slots) != 1 || result.Slots[0].Name != "collecting_feedback" {
		t.Fatalf("unexpected slots: %+v", result.Slots)
	}
}

func TestTriggerRequiresAction(t *testing.T) {
	client, err := NewClient("http://localhost:5055", nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Trigger(context.Background(), TriggerRequest{}); err == nil {
		t.Fatal("expected error for missing action name")
	}
}

func TestListInteractionsSendsToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected limit: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": "e1", "sender_id": "alice", "intent": "get_stream_status", "status": "archived"}]`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.SetAccessToken("secret")

	events, err := client.ListInteractions(context.Background(), 5)
	if err != nil {
		t.Fatalf("list interactions: %v", err)
	}
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestInteractionStatsMirrorsAllCounters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/interactions/stats" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"total": 5, "pending": 1, "archiving": 2, "archived": 1, "failed": 1, "by_intent": {"greet": 3}}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	stats, err := client.InteractionStats(context.Background())
	if err != nil {
		t.Fatalf("interaction stats: %v", err)
	}
	if stats.Total != 5 || stats.Pending != 1 || stats.Archiving != 2 || stats.Archived != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByIntent["greet"] != 3 {
		t.Fatalf("unexpected intent breakdown: %+v", stats.ByIntent)
	}
}

func TestAPIErrorSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "未授权", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.InteractionStats(context.Background())
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}
