package interaction

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
	"github.com/xnox-me/Streamin/internal/observability/alerting"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// Archiver 定义了事件归档目标的能力，例如写入审计日志或外部分析系统。
type Archiver interface {
	Archive(ctx context.Context, event *Event) error
}

// AuditArchiver 将事件写入审计日志，是默认的归档目标。
type AuditArchiver struct{}

// Archive 实现 Archiver 接口。
func (AuditArchiver) Archive(_ context.Context, event *Event) error {
	if event == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "event 不能为空")
	}
	logger.Audit().Info("互动事件归档",
		slog.String("event_id", event.ID),
		slog.String("sender_id", event.SenderID),
		slog.String("intent", event.Intent),
		slog.String("message", event.Message),
	)
	return nil
}

// Processor 负责从队列消费事件并执行归档。
type Processor struct {
	archiver    Archiver
	store       Store
	consumer    Consumer
	producer    Producer
	workerCount int
	logger      *slog.Logger
	alerter     alerting.Dispatcher
}

// ProcessorOption 定义可选配置。
type ProcessorOption func(*Processor)

// WithProcessorLogger 指定日志输出。
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithWorkerCount 设置消费协程数量。
func WithWorkerCount(workers int) ProcessorOption {
	return func(p *Processor) {
		if workers > 0 {
			p.workerCount = workers
		}
	}
}

// WithAlertDispatcher 配置告警派发器。
func WithAlertDispatcher(dispatcher alerting.Dispatcher) ProcessorOption {
	return func(p *Processor) {
		p.alerter = dispatcher
	}
}

// NewProcessor 构造 Processor。
func NewProcessor(archiver Archiver, store Store, consumer Consumer, producer Producer, opts ...ProcessorOption) *Processor {
	p := &Processor{
		archiver:    archiver,
		store:       store,
		consumer:    consumer,
		producer:    producer,
		workerCount: 1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.archiver == nil {
		p.archiver = AuditArchiver{}
	}
	if p.workerCount <= 0 {
		p.workerCount = 1
	}
	return p
}

// Start 启动事件处理循环。
func (p *Processor) Start(ctx context.Context) error {
	if p.consumer == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "未配置事件消费者")
	}
	return p.consumer.Consume(ctx, p.workerCount, p.handle)
}

func (p *Processor) handle(ctx context.Context, eventID string) error {
	if p.store == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "处理器未初始化")
	}
	event, err := p.store.Claim(ctx, eventID)
	if err != nil {
		if stdErrors.Is(err, ErrEventNotFound) || stdErrors.Is(err, ErrEventArchived) || stdErrors.Is(err, ErrEventExhausted) {
			p.logDebug("跳过事件", slog.String("event_id", eventID), slog.String("reason", err.Error()))
			return nil
		}
		logger.L().Error("领取事件失败", slog.Any("error", err), slog.String("event_id", eventID))
		p.emitAlert(ctx, &Event{ID: eventID}, CodeEventArchiving, err, "claim")
		return err
	}

	if archiveErr := p.archiver.Archive(ctx, event); archiveErr != nil {
		return p.handleArchiveFailure(ctx, event, archiveErr)
	}

	if err := p.store.MarkArchived(ctx, event.ID); err != nil {
		logger.L().Error("标记事件归档状态失败", slog.Any("error", err), slog.String("event_id", event.ID))
		if storeErr := p.store.MarkFailed(ctx, event.ID, CodeEventArchiving, err.Error(), false); storeErr != nil {
			logger.L().Error("回写失败状态出错", slog.Any("error", storeErr), slog.String("event_id", event.ID))
			return storeErr
		}
		if pubErr := p.producer.Publish(ctx, event.ID); pubErr != nil {
			return xerrors.Wrap(CodeEventPublish, pubErr, fmt.Sprintf("事件 %s 在标记归档失败后重投失败", event.ID))
		}
		logger.Audit().Warn("事件标记归档失败后重试",
			slog.String("event_id", event.ID),
			slog.String("intent", event.Intent),
			slog.String("error", err.Error()),
		)
		return nil
	}
	logger.Audit().Info("事件归档成功",
		slog.String("event_id", event.ID),
		slog.String("sender_id", event.SenderID),
		slog.String("intent", event.Intent),
	)
	return nil
}

func (p *Processor) handleArchiveFailure(ctx context.Context, event *Event, archiveErr error) error {
	code := xerrors.CodeOf(archiveErr)
	if code == xerrors.CodeUnknown {
		code = CodeEventArchiving
	}
	retryable := xerrors.RetryableError(archiveErr)
	terminal := event.Attempts >= event.MaxRetries || !retryable

	if storeErr := p.store.MarkFailed(ctx, event.ID, code, archiveErr.Error(), terminal); storeErr != nil {
		logger.L().Error("标记事件失败状态出错", slog.Any("error", storeErr), slog.String("event_id", event.ID))
		return storeErr
	}
	logger.Audit().Warn("事件归档失败",
		slog.String("event_id", event.ID),
		slog.String("intent", event.Intent),
		slog.Bool("terminal", terminal),
		slog.String("error", archiveErr.Error()),
		slog.String("error_code", string(code)),
		slog.Int("attempts", event.Attempts),
		slog.Int("max_retries", event.MaxRetries),
	)

	stage := "retry"
	if terminal {
		stage = "terminal"
	} else if !retryable {
		stage = "non_retryable"
	}
	p.emitAlert(ctx, event, code, archiveErr, stage)

	if retryable && !terminal {
		if pubErr := p.producer.Publish(ctx, event.ID); pubErr != nil {
			return xerrors.Wrap(CodeEventPublish, pubErr, fmt.Sprintf("事件 %s 重投失败", event.ID))
		}
		p.logDebug("事件已重新排队", slog.String("event_id", event.ID), slog.Int("attempts", event.Attempts))
	}
	return nil
}

func (p *Processor) logDebug(msg string, attrs ...slog.Attr) {
	if p.logger != nil {
		args := make([]any, len(attrs))
		for i, attr := range attrs {
			args[i] = attr
		}
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) emitAlert(ctx context.Context, event *Event, code xerrors.Code, cause error, stage string) {
	if p == nil || p.alerter == nil || event == nil {
		return
	}
	attrs := xerrors.AttributesOf(code)
	message := attrs.Message
	if cause != nil {
		message = cause.Error()
	}
	metadata := map[string]string{
		"stage": stage,
	}
	if cause != nil {
		metadata["cause"] = cause.Error()
	}
	alertEvent := alerting.Event{
		Code:       code,
		Message:    message,
		Severity:   attrs.Severity,
		EventID:    event.ID,
		Intent:     event.Intent,
		SenderID:   event.SenderID,
		Attempts:   event.Attempts,
		MaxRetries: event.MaxRetries,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}
	if err := p.alerter.Notify(ctx, alertEvent); err != nil {
		logger.L().Error("告警通知失败",
			slog.Any("error", err),
			slog.String("event_id", event.ID),
			slog.String("stage", stage),
		)
	}
}
