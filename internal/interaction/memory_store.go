package interaction

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

// MemoryStore 以内存方式保存互动事件，主要用于测试和单机部署。
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]*Event
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]*Event)}
}

// Create 实现 Store 接口。
func (m *MemoryStore) Create(_ context.Context, event *Event) error {
	if event == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "event 不能为空")
	}
	if event.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "事件 ID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[event.ID]; ok {
		return ErrEventConflict
	}
	now := time.Now().Unix()
	if event.CreatedAt == 0 {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
	m.events[event.ID] = cloneEvent(event)
	return nil
}

// Get 返回事件。
func (m *MemoryStore) Get(_ context.Context, id string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	event, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	return cloneEvent(event), nil
}

// Claim 将事件状态更新为归档中。
func (m *MemoryStore) Claim(_ context.Context, id string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, ErrEventNotFound
	}
	switch event.Status {
	case StatusArchived:
		return cloneEvent(event), ErrEventArchived
	case StatusArchiving:
		return cloneEvent(event), ErrEventConflict
	}
	if event.Attempts >= event.MaxRetries {
		return cloneEvent(event), ErrEventExhausted
	}
	event.Status = StatusArchiving
	event.Attempts++
	event.LastError = ""
	event.ErrorCode = ""
	event.UpdatedAt = time.Now().Unix()
	return cloneEvent(event), nil
}

// MarkArchived 记录归档完成。
func (m *MemoryStore) MarkArchived(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Status = StatusArchived
	event.LastError = ""
	event.ErrorCode = ""
	event.UpdatedAt = time.Now().Unix()
	return nil
}

// MarkFailed 标记事件归档失败。
func (m *MemoryStore) MarkFailed(_ context.Context, id string, code xerrors.Code, lastError string, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return ErrEventNotFound
	}
	event.Status = StatusFailed
	event.LastError = lastError
	event.ErrorCode = string(code)
	event.UpdatedAt = time.Now().Unix()
	return nil
}

// List 返回符合过滤条件的事件。
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	results := make([]*Event, 0, len(m.events))
	for _, event := range m.events {
		if !matchesListFilters(event, opts) {
			continue
		}
		results = append(results, cloneEvent(event))
	}

	sort.Slice(results, func(i, j int) bool {
		if opts.Order == SortByUpdatedAsc {
			if results[i].UpdatedAt == results[j].UpdatedAt {
				if results[i].CreatedAt == results[j].CreatedAt {
					return results[i].ID < results[j].ID
				}
				return results[i].CreatedAt < results[j].CreatedAt
			}
			return results[i].UpdatedAt < results[j].UpdatedAt
		}
		if results[i].UpdatedAt == results[j].UpdatedAt {
			if results[i].CreatedAt == results[j].CreatedAt {
				return results[i].ID < results[j].ID
			}
			return results[i].CreatedAt > results[j].CreatedAt
		}
		return results[i].UpdatedAt > results[j].UpdatedAt
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(results) {
			return []*Event{}, nil
		}
		results = results[opts.Offset:]
	}
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Stats 统计符合过滤条件的事件数量与更新时间范围。
func (m *MemoryStore) Stats(_ context.Context, opts ListOptions) (EventStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	stats := EventStats{ByIntent: make(map[string]int)}
	for _, event := range m.events {
		if !matchesListFilters(event, opts) {
			continue
		}
		stats.Total++
		switch event.Status {
		case StatusPending:
			stats.Pending++
		case StatusArchiving:
			stats.Archiving++
		case StatusArchived:
			stats.Archived++
		case StatusFailed:
			stats.Failed++
		}
		if event.Intent != "" {
			stats.ByIntent[event.Intent]++
		}
		if event.UpdatedAt > stats.NewestUpdatedAt {
			stats.NewestUpdatedAt = event.UpdatedAt
		}
		if stats.OldestUpdatedAt == 0 || (event.UpdatedAt != 0 && event.UpdatedAt < stats.OldestUpdatedAt) {
			stats.OldestUpdatedAt = event.UpdatedAt
		}
	}
	if stats.Total == 0 {
		stats.OldestUpdatedAt = 0
		stats.NewestUpdatedAt = 0
	}
	if len(stats.ByIntent) == 0 {
		stats.ByIntent = nil
	}
	return stats, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

func matchesListFilters(event *Event, opts ListOptions) bool {
	if len(opts.Statuses) > 0 {
		matched := false
		for _, status := range opts.Statuses {
			if event.Status == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(opts.Intents) > 0 {
		matched := false
		for _, intent := range opts.Intents {
			if event.Intent == intent {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if opts.SenderID != "" && event.SenderID != opts.SenderID {
		return false
	}
	if opts.UpdatedGTE > 0 && event.UpdatedAt < opts.UpdatedGTE {
		return false
	}
	if opts.UpdatedLTE > 0 && event.UpdatedAt > opts.UpdatedLTE {
		return false
	}
	if opts.Query != "" {
		query := strings.ToLower(opts.Query)
		haystack := strings.ToLower(event.ID + " " + event.SenderID + " " + event.Intent + " " + event.Message + " " + event.Reply)
		if !strings.Contains(haystack, query) {
			return false
		}
	}
	return true
}

var _ Store = (*MemoryStore)(nil)
