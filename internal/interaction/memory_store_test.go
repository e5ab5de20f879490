package interaction

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreListWithFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().Add(-2 * time.Minute)

	events := []*Event{
		{ID: "e1", SenderID: "alice", Intent: "get_stream_status", Status: StatusPending, MaxRetries: 3},
		{ID: "e2", SenderID: "bob", Intent: "get_social_links", Status: StatusPending, MaxRetries: 3},
		{ID: "e3", SenderID: "alice", Intent: "collect_feedback", Status: StatusPending, MaxRetries: 3},
	}

	for _, event := range events {
		if err := store.Create(ctx, event); err != nil {
			t.Fatalf("create event %s: %v", event.ID, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := store.MarkFailed(ctx, "e2", CodeEventArchiving, "boom", true); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkArchived(ctx, "e3"); err != nil {
		t.Fatalf("mark archived: %v", err)
	}

	store.mu.Lock()
	store.events["e1"].UpdatedAt = base.Unix()
	store.events["e2"].UpdatedAt = base.Add(30 * time.Second).Unix()
	store.events["e3"].UpdatedAt = base.Add(60 * time.Second).Unix()
	store.mu.Unlock()

	all, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].ID != "e3" {
		t.Fatalf("expected newest event first, got %s", all[0].ID)
	}

	failed, err := store.List(ctx, buildListOptions([]ListOption{WithStatuses(StatusFailed)}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "e2" {
		t.Fatalf("unexpected failed list: %+v", failed)
	}

	byIntent, err := store.List(ctx, buildListOptions([]ListOption{WithIntents("get_stream_status")}))
	if err != nil {
		t.Fatalf("list by intent: %v", err)
	}
	if len(byIntent) != 1 || byIntent[0].ID != "e1" {
		t.Fatalf("unexpected intent list: %+v", byIntent)
	}

	bySender, err := store.List(ctx, buildListOptions([]ListOption{WithSenderID("alice")}))
	if err != nil {
		t.Fatalf("list by sender: %v", err)
	}
	if len(bySender) != 2 {
		t.Fatalf("expected 2 events for alice, got %d", len(bySender))
	}

	since := base.Add(15 * time.Second)
	recent, err := store.List(ctx, buildListOptions([]ListOption{WithUpdatedSince(since)}))
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 events to match since filter, got %d", len(recent))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Minute)
	events := []*Event{
		{ID: "a", SenderID: "alice", Intent: "get_stream_status", Status: StatusPending, MaxRetries: 3},
		{ID: "b", SenderID: "bob", Intent: "get_stream_status", Status: StatusPending, MaxRetries: 3},
		{ID: "c", SenderID: "carol", Intent: "collect_feedback", Status: StatusPending, MaxRetries: 3},
	}

	for _, event := range events {
		if err := store.Create(ctx, event); err != nil {
			t.Fatalf("create event %s: %v", event.ID, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := store.MarkFailed(ctx, "b", CodeEventArchiving, "boom", true); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkArchived(ctx, "c"); err != nil {
		t.Fatalf("mark archived: %v", err)
	}

	store.mu.Lock()
	store.events["a"].UpdatedAt = base.Unix()
	store.events["b"].UpdatedAt = base.Add(30 * time.Second).Unix()
	store.events["c"].UpdatedAt = base.Add(2 * time.Minute).Unix()
	store.mu.Unlock()

	stats, err := store.Stats(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Failed != 1 || stats.Archived != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.ByIntent["get_stream_status"] != 2 || stats.ByIntent["collect_feedback"] != 1 {
		t.Fatalf("unexpected intent stats: %+v", stats.ByIntent)
	}
	if stats.NewestUpdatedAt != base.Add(2*time.Minute).Unix() {
		t.Fatalf("unexpected newest timestamp: %d", stats.NewestUpdatedAt)
	}
	if stats.OldestUpdatedAt != base.Unix() {
		t.Fatalf("unexpected oldest timestamp: %d", stats.OldestUpdatedAt)
	}

	failedOnly, err := store.Stats(ctx, buildListOptions([]ListOption{WithStatuses(StatusFailed)}))
	if err != nil {
		t.Fatalf("stats failed only: %v", err)
	}
	if failedOnly.Total != 1 || failedOnly.Failed != 1 {
		t.Fatalf("unexpected failed stats: %+v", failedOnly)
	}
}

func TestMemoryStoreClaimLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	event := &Event{ID: "e1", SenderID: "alice", Intent: "get_stream_status", Status: StatusPending, MaxRetries: 2}
	if err := store.Create(ctx, event); err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := store.Claim(ctx, "e1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != StatusArchiving || claimed.Attempts != 1 {
		t.Fatalf("unexpected claimed event: %+v", claimed)
	}

	if _, err := store.Claim(ctx, "e1"); !errors.Is(err, ErrEventConflict) {
		t.Fatalf("expected conflict on double claim, got %v", err)
	}

	if err := store.MarkArchived(ctx, "e1"); err != nil {
		t.Fatalf("mark archived: %v", err)
	}
	if _, err := store.Claim(ctx, "e1"); !errors.Is(err, ErrEventArchived) {
		t.Fatalf("expected archived error, got %v", err)
	}

	if _, err := store.Claim(ctx, "missing"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
