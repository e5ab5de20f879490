package interaction

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// RecordRequest 描述一次待记录的互动。
type RecordRequest struct {
	ID       string
	SenderID string
	Intent   string
	Message  string
	Reply    string
}

// Service 负责互动事件的记录与查询。
type Service struct {
	store      Store
	producer   Producer
	maxRetries int
}

// NewService 构造互动服务。
func NewService(store Store, producer Producer, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Service{store: store, producer: producer, maxRetries: maxRetries}
}

// Record 创建一条新的互动事件并推送到归档队列。
func (s *Service) Record(ctx context.Context, req RecordRequest) (*Event, error) {
	if strings.TrimSpace(req.Intent) == "" {
		return nil, xerrors.New(CodeEventValidation, "互动意图不能为空")
	}
	if s.store == nil || s.producer == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "互动服务未初始化")
	}

	eventID := strings.TrimSpace(req.ID)
	if eventID != "" {
		event, err := s.store.Get(ctx, eventID)
		if err == nil {
			return event, nil
		}
		if !stdErrors.Is(err, ErrEventNotFound) {
			return nil, err
		}
	} else {
		eventID = uuid.NewString()
	}

	event := &Event{
		ID:         eventID,
		SenderID:   strings.TrimSpace(req.SenderID),
		Intent:     strings.TrimSpace(req.Intent),
		Message:    req.Message,
		Reply:      req.Reply,
		Status:     StatusPending,
		Attempts:   0,
		MaxRetries: s.maxRetries,
	}
	if err := s.store.Create(ctx, event); err != nil {
		if stdErrors.Is(err, ErrEventConflict) {
			existing, getErr := s.store.Get(ctx, eventID)
			if getErr == nil {
				return existing, nil
			}
			if !stdErrors.Is(getErr, ErrEventNotFound) {
				return nil, getErr
			}
		}
		return nil, err
	}
	if err := s.producer.Publish(ctx, eventID); err != nil {
		logger.L().Error("互动事件入队失败", slog.Any("error", err), slog.String("event_id", eventID))
		wrapped := xerrors.Wrap(CodeEventPublish, err, "发布互动事件到队列失败")
		_ = s.store.MarkFailed(ctx, eventID, CodeEventPublish, wrapped.Error(), true)
		return nil, wrapped
	}
	logger.Audit().Info("互动事件入队成功",
		slog.String("event_id", eventID),
		slog.String("sender_id", event.SenderID),
		slog.String("intent", event.Intent),
		slog.Int("max_retries", event.MaxRetries),
	)
	return event, nil
}

// Get 返回指定事件。
func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "互动存储未初始化")
	}
	return s.store.Get(ctx, id)
}

// List 返回符合过滤条件的事件列表。
func (s *Service) List(ctx context.Context, opts ...ListOption) ([]*Event, error) {
	if s.store == nil {
		return nil, xerrors.New(xerrors.CodeInitializationFailure, "互动存储未初始化")
	}
	options := buildListOptions(opts)
	return s.store.List(ctx, options)
}

// Stats 返回符合过滤条件的事件统计信息。
func (s *Service) Stats(ctx context.Context, opts ...ListOption) (EventStats, error) {
	if s.store == nil {
		return EventStats{}, xerrors.New(xerrors.CodeInitializationFailure, "互动存储未初始化")
	}
	options := buildListOptions(opts)
	return s.store.Stats(ctx, options)
}

// Close 释放资源。
func (s *Service) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	if s.producer != nil {
		return s.producer.Close()
	}
	return nil
}
