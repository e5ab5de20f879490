package alerting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// Channel 表示通知渠道。
type Channel string

// 支持的通知渠道
const (
	ChannelLog     Channel = "log"
	ChannelDiscord Channel = "discord"
	ChannelSlack   Channel = "slack"
)

// Event 描述一次需要告警的事件。
type Event struct {
	Code       xerrors.Code
	Message    string
	Severity   xerrors.Severity
	Channel    Channel
	EventID    string
	Intent     string
	SenderID   string
	Attempts   int
	MaxRetries int
	Metadata   map[string]string
	OccurredAt time.Time
}

// Notifier 负责将事件发送到指定渠道。
type Notifier interface {
	Channel() Channel
	Notify(ctx context.Context, event Event) error
}

// Dispatcher 将事件广播给多个通知器。
type Dispatcher interface {
	Notify(ctx context.Context, event Event) error
}

// FanoutDispatcher 实现将事件投递到多个通知器的逻辑。
type FanoutDispatcher struct {
	notifiers map[Channel]Notifier
}

// NewFanout 创建一个新的 FanoutDispatcher。
func NewFanout(notifiers ...Notifier) *FanoutDispatcher {
	set := make(map[Channel]Notifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		set[n.Channel()] = n
	}
	return &FanoutDispatcher{notifiers: set}
}

// Notify 将事件广播至所有注册渠道。
func (d *FanoutDispatcher) Notify(ctx context.Context, event Event) error {
	if d == nil {
		return nil
	}
	var errs []error
	for _, notifier := range d.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("channel %s: %w", notifier.Channel(), err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// LogNotifier 将告警写入结构化日志，是默认兜底渠道。
type LogNotifier struct{}

// Channel 返回日志渠道。
func (n *LogNotifier) Channel() Channel { return ChannelLog }

// Notify 写入日志。
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	attrs := []any{
		slog.String("code", string(event.Code)),
		slog.String("severity", string(event.Severity)),
		slog.String("event_id", event.EventID),
		slog.String("intent", event.Intent),
		slog.Int("attempts", event.Attempts),
		slog.Int("max_retries", event.MaxRetries),
	}
	switch event.Severity {
	case xerrors.SeverityCritical:
		logger.L().Error(event.Message, attrs...)
	case xerrors.SeverityWarning:
		logger.L().Warn(event.Message, attrs...)
	default:
		logger.L().Info(event.Message, attrs...)
	}
	return nil
}

// DiscordSender 负责向 Discord webhook 发送消息。
type DiscordSender interface {
	Send(ctx context.Context, content string) error
}

// DiscordNotifier 通过 Discord webhook 发送告警。
type DiscordNotifier struct {
	Sender DiscordSender
}

// Channel 返回 Discord 渠道。
func (n *DiscordNotifier) Channel() Channel { return ChannelDiscord }

// Notify 发送 Discord 消息。
func (n *DiscordNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil {
		logger.L().Warn("DiscordNotifier 未正确配置，跳过发送", slog.String("event_id", event.EventID))
		return nil
	}
	payload := fmt.Sprintf("**[%s] %s**\n意图: %s\n事件: %s\n重试: %d/%d\n%s",
		event.Severity, event.Code, event.Intent, event.EventID, event.Attempts, event.MaxRetries, event.Message)
	if len(event.Metadata) > 0 {
		payload += "\n详情:"
		for k, v := range event.Metadata {
			payload += fmt.Sprintf("\n- %s: %s", k, v)
		}
	}
	return n.Sender.Send(ctx, payload)
}

// SlackSender 负责向 Slack 渠道发送消息。
type SlackSender interface {
	Send(ctx context.Context, channel, content string) error
}

// SlackNotifier 通过 Slack 发送告警。
type SlackNotifier struct {
	Sender    SlackSender
	ChannelID string
}

// Channel 返回 Slack 渠道。
func (n *SlackNotifier) Channel() Channel { return ChannelSlack }

// Notify 发送 Slack 消息。
func (n *SlackNotifier) Notify(ctx context.Context, event Event) error {
	if n == nil || n.Sender == nil || n.ChannelID == "" {
		logger.L().Warn("SlackNotifier 未正确配置，跳过发送", slog.String("event_id", event.EventID))
		return nil
	}
	content := fmt.Sprintf("*[%s]* %s - %s (意图 %s, 重试 %d/%d)",
		event.Severity, event.Code, event.Message, event.Intent, event.Attempts, event.MaxRetries)
	return n.Sender.Send(ctx, n.ChannelID, content)
}
