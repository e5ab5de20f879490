package status

import (
	"fmt"
	"strings"
	"testing"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

func TestRenderStreamStatusCounts(t *testing.T) {
	cases := []struct {
		streams StreamList
		want    int
	}{
		{StreamList{{ID: "a", Status: StreamActive}, {ID: "b", Status: StreamInactive}}, 1},
		{StreamList{{ID: "a", Status: StreamInactive}}, 0},
		{StreamList{{Status: StreamActive}, {Status: StreamActive}, {Status: StreamActive}}, 3},
	}
	for _, tc := range cases {
		got := RenderStreamStatus(tc.streams, nil)
		want := fmt.Sprintf("%d active stream(s)", tc.want)
		if !strings.Contains(got, want) {
			t.Fatalf("message %q does not report %q", got, want)
		}
	}
}

func TestRenderStreamStatusEmptyList(t *testing.T) {
	got := RenderStreamStatus(StreamList{}, nil)
	if !strings.Contains(got, "No active streams") {
		t.Fatalf("unexpected message: %q", got)
	}
	if got != RenderStreamStatus(nil, nil) {
		t.Fatalf("nil and empty list should render alike")
	}
}

func TestRenderStreamStatusFallbacks(t *testing.T) {
	badStatus := RenderStreamStatus(nil, xerrors.New(xerrors.CodeUpstreamBadStatus, ""))
	if !strings.Contains(badStatus, "Unable to check stream status") {
		t.Fatalf("unexpected bad-status message: %q", badStatus)
	}

	unavailable := RenderStreamStatus(nil, xerrors.New(xerrors.CodeUpstreamUnavailable, ""))
	if !strings.Contains(unavailable, "might be unavailable") {
		t.Fatalf("unexpected unavailable message: %q", unavailable)
	}

	// 未归类的错误一律按服务不可用处理。
	plain := RenderStreamStatus(nil, fmt.Errorf("connection reset"))
	if plain != unavailable {
		t.Fatalf("plain errors should render the unavailable fallback, got %q", plain)
	}
}

func TestRenderPlatformStatus(t *testing.T) {
	platforms := PlatformList{
		{Name: "twitch", IsConnected: true, IsStreaming: true},
		{Name: "youtube", IsConnected: true, IsStreaming: false},
		{Name: "tiktok", IsConnected: false, IsStreaming: true},
	}

	got := RenderPlatformStatus(platforms, nil)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 platforms, got %q", got)
	}
	if lines[1] != "Twitch: 🟢 Live" {
		t.Fatalf("unexpected first platform line: %q", lines[1])
	}
	if lines[2] != "Youtube: 💬 Chat Only" {
		t.Fatalf("unexpected second platform line: %q", lines[2])
	}
	// 未接入的平台无论是否在推流都不渲染。
	if strings.Contains(got, "Tiktok") {
		t.Fatalf("disconnected platform leaked into output: %q", got)
	}
}

func TestRenderPlatformStatusNoneConnected(t *testing.T) {
	platforms := PlatformList{
		{Name: "twitch", IsConnected: false, IsStreaming: true},
	}
	got := RenderPlatformStatus(platforms, nil)
	if !strings.Contains(got, "No platforms currently connected") {
		t.Fatalf("unexpected message: %q", got)
	}
	if got != RenderPlatformStatus(PlatformList{}, nil) {
		t.Fatalf("empty list and all-disconnected list should render alike")
	}
}

func TestRenderPlatformStatusFallbacks(t *testing.T) {
	badStatus := RenderPlatformStatus(nil, xerrors.New(xerrors.CodeUpstreamBadStatus, ""))
	unavailable := RenderPlatformStatus(nil, xerrors.New(xerrors.CodeUpstreamUnavailable, ""))
	if badStatus == unavailable {
		t.Fatalf("error kinds should render distinct deterministic messages")
	}
	if badStatus != RenderPlatformStatus(nil, xerrors.New(xerrors.CodeUpstreamBadStatus, "other wording")) {
		t.Fatalf("fallback must be deterministic per error kind")
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"twitch":       "Twitch",
		"youTube":      "Youtube",
		"my platform":  "My Platform",
		"X":            "X",
		"":             "",
		"  trimmed  ":  "Trimmed",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Fatalf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
