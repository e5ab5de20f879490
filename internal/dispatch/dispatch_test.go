package dispatch

import (
	"context"
	"strings"
	"testing"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
	"github.com/xnox-me/Streamin/internal/interaction"
	"github.com/xnox-me/Streamin/internal/status"
	"github.com/xnox-me/Streamin/internal/viewers"
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

func TestDispatchStreamStatusScenario(t *testing.T) {
	fetcher := &stubFetcher{streams: status.StreamList{
		{ID: "s1", Status: status.StreamActive},
		{ID: "s2", Status: status.StreamInactive},
	}}
	d := NewDispatcher(fetcher, nil)

	result := d.Dispatch(context.Background(), Request{Intent: "get_stream_status", SenderID: "alice"})
	if !strings.Contains(result.Message, "1 active stream(s)") {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	if len(result.SlotUpdates) != 0 {
		t.Fatalf("unexpected slot updates: %+v", result.SlotUpdates)
	}
}

func TestDispatchNeverFails(t *testing.T) {
	cases := []struct {
		name    string
		fetcher StatusFetcher
		intent  string
	}{
		{"unknown intent", &stubFetcher{}, "order_pizza"},
		{"empty intent", &stubFetcher{}, ""},
		{"nil fetcher remote intent", nil, "get_stream_status"},
		{"upstream error", &stubFetcher{err: xerrors.New(xerrors.CodeUpstreamUnavailable, "下游不可达")}, "get_platform_info"},
		{"bad status", &stubFetcher{err: xerrors.New(xerrors.CodeUpstreamBadStatus, "bad gateway")}, "get_stream_status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewDispatcher(tc.fetcher, nil)
			result := d.Dispatch(context.Background(), Request{Intent: tc.intent, SenderID: "bob", Message: "hi"})
			if result.Message == "" && len(result.SlotUpdates) == 0 {
				t.Fatal("expected a message or slot updates")
			}
		})
	}
}

func TestDispatchNormalizesActionPrefix(t *testing.T) {
	d := NewDispatcher(&stubFetcher{}, nil)

	prefixed := d.Dispatch(context.Background(), Request{Intent: "action_get_social_links"})
	plain := d.Dispatch(context.Background(), Request{Intent: "get_social_links"})
	if prefixed.Message != plain.Message {
		t.Fatalf("prefix normalization mismatch: %q vs %q", prefixed.Message, plain.Message)
	}
	if !strings.Contains(plain.Message, "Follow us") {
		t.Fatalf("unexpected social links message: %q", plain.Message)
	}
}

func TestDispatchTechnicalIssueKeywordPriority(t *testing.T) {
	d := NewDispatcher(&stubFetcher{}, nil)

	result := d.Dispatch(context.Background(), Request{
		Intent:  "handle_technical_issue",
		Message: "the stream has lag and the audio cuts out",
	})
	if !strings.Contains(result.Message, "lag") {
		t.Fatalf("expected lag tips to win priority, got: %q", result.Message)
	}
}

func TestDispatchLogInteraction(t *testing.T) {
	d := NewDispatcher(&stubFetcher{}, nil)

	result := d.Dispatch(context.Background(), Request{
		Intent:       "log_user_interaction",
		SenderID:     "alice",
		LatestIntent: "greet",
	})
	if result.Message != "" {
		t.Fatalf("expected no user-visible message, got %q", result.Message)
	}
	if got := result.SlotUpdates[SlotLastInteraction]; got != "greet" {
		t.Fatalf("unexpected last_interaction slot: %v", got)
	}
}

func TestDispatchCollectFeedback(t *testing.T) {
	d := NewDispatcher(&stubFetcher{}, nil)

	result := d.Dispatch(context.Background(), Request{Intent: "collect_feedback"})
	if !strings.Contains(result.Message, "feedback") {
		t.Fatalf("unexpected feedback prompt: %q", result.Message)
	}
	if got := result.SlotUpdates[SlotCollectingFeedback]; got != true {
		t.Fatalf("expected collecting_feedback=true, got %v", got)
	}
}

type stubViewers struct {
	count viewers.Count
	err   error
}

func (s *stubViewers) ViewerCount(context.Context) (viewers.Count, error) {
	return s.count, s.err
}

func TestDispatchViewerCount(t *testing.T) {
	t.Run("placeholder without provider", func(t *testing.T) {
		d := NewDispatcher(&stubFetcher{}, nil)
		result := d.Dispatch(context.Background(), Request{Intent: "get_viewer_count"})
		if !strings.Contains(result.Message, "being implemented") {
			t.Fatalf("unexpected placeholder: %q", result.Message)
		}
	})

	t.Run("provider wired", func(t *testing.T) {
		d := NewDispatcher(&stubFetcher{}, nil, WithViewerProvider(&stubViewers{count: viewers.Count{Total: 42}}))
		result := d.Dispatch(context.Background(), Request{Intent: "get_viewer_count"})
		if !strings.Contains(result.Message, "42") {
			t.Fatalf("unexpected message: %q", result.Message)
		}
	})

	t.Run("provider error falls back", func(t *testing.T) {
		d := NewDispatcher(&stubFetcher{}, nil, WithViewerProvider(&stubViewers{err: xerrors.New(xerrors.CodeUpstreamUnavailable, "不可用")}))
		result := d.Dispatch(context.Background(), Request{Intent: "get_viewer_count"})
		if !strings.Contains(result.Message, "being implemented") {
			t.Fatalf("unexpected fallback: %q", result.Message)
		}
	})
}

func TestDispatchRecordsInteraction(t *testing.T) {
	store := interaction.NewMemoryStore()
	queue := interaction.NewMemoryQueue(8)
	service := interaction.NewService(store, queue, 3)

	d := NewDispatcher(&stubFetcher{}, nil, WithRecorder(service))
	d.Dispatch(context.Background(), Request{Intent: "get_stream_schedule", SenderID: "alice", Message: "when are you live?"})

	events, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 recorded event, got %d", len(events))
	}
	if events[0].Intent != "get_stream_schedule" || events[0].SenderID != "alice" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Reply == "" {
		t.Fatal("expected reply to be recorded")
	}
}
