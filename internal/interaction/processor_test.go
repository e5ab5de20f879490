package interaction

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

type countingArchiver struct {
	archived atomic.Int32
	latency  time.Duration
}

func (a *countingArchiver) Archive(ctx context.Context, _ *Event) error {
	if a.latency > 0 {
		select {
		case <-time.After(a.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.archived.Add(1)
	return nil
}

type failingArchiver struct {
	calls atomic.Int32
}

func (a *failingArchiver) Archive(context.Context, *Event) error {
	a.calls.Add(1)
	return xerrors.New(CodeEventArchiving, "归档目标不可用", xerrors.WithRetryable(true))
}

func TestProcessorHandlesConcurrentEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store := NewMemoryStore()
	queue := NewMemoryQueue(1024)
	archiver := &countingArchiver{latency: 10 * time.Millisecond}

	service := NewService(store, queue, 3)
	processor := NewProcessor(archiver, store, queue, queue, WithWorkerCount(8))

	go func() {
		if err := processor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("processor exited: %v", err)
		}
	}()

	total := 200
	for i := 0; i < total; i++ {
		sender := fmt.Sprintf("viewer-%d", i)
		if _, err := service.Record(ctx, RecordRequest{SenderID: sender, Intent: "get_stream_status"}); err != nil {
			t.Fatalf("记录互动失败: %v", err)
		}
	}

	deadline := time.After(5 * time.Second)
	for {
		if int(archiver.archived.Load()) >= total {
			cancel()
			break
		}
		select {
		case <-deadline:
			t.Fatalf("事件未能及时归档，已完成 %d", archiver.archived.Load())
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestProcessorRetriesUntilExhausted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store := NewMemoryStore()
	queue := NewMemoryQueue(64)
	archiver := &failingArchiver{}

	service := NewService(store, queue, 2)
	processor := NewProcessor(archiver, store, queue, queue, WithWorkerCount(1))

	go func() {
		_ = processor.Start(ctx)
	}()

	event, err := service.Record(ctx, RecordRequest{SenderID: "alice", Intent: "collect_feedback"})
	if err != nil {
		t.Fatalf("记录互动失败: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		current, getErr := store.Get(ctx, event.ID)
		if getErr != nil {
			t.Fatalf("查询事件失败: %v", getErr)
		}
		if current.Status == StatusFailed && current.Attempts >= current.MaxRetries {
			if current.ErrorCode != string(CodeEventArchiving) {
				t.Fatalf("unexpected error code: %s", current.ErrorCode)
			}
			cancel()
			return
		}
		select {
		case <-deadline:
			t.Fatalf("事件未在限期内耗尽重试: %+v", current)
		case <-time.After(25 * time.Millisecond):
		}
	}
}

func TestServiceRecordValidation(t *testing.T) {
	service := NewService(NewMemoryStore(), NewMemoryQueue(8), 3)

	if _, err := service.Record(context.Background(), RecordRequest{SenderID: "alice"}); err == nil {
		t.Fatal("expected validation error for empty intent")
	}

	event, err := service.Record(context.Background(), RecordRequest{SenderID: "alice", Intent: "get_stream_status", Message: "is the stream live?"})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if event.ID == "" {
		t.Fatal("expected generated event ID")
	}
	if event.Status != StatusPending {
		t.Fatalf("unexpected status: %s", event.Status)
	}

	// 重复提交同一 ID 应返回已有事件。
	again, err := service.Record(context.Background(), RecordRequest{ID: event.ID, SenderID: "alice", Intent: "get_stream_status"})
	if err != nil {
		t.Fatalf("record existing: %v", err)
	}
	if again.ID != event.ID {
		t.Fatalf("expected same event, got %s", again.ID)
	}
}
