package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xnox-me/Streamin/internal/content"
	xerrors "github.com/xnox-me/Streamin/internal/errors"
	"github.com/xnox-me/Streamin/internal/interaction"
	"github.com/xnox-me/Streamin/internal/status"
	"github.com/xnox-me/Streamin/internal/viewers"
	"github.com/xnox-me/Streamin/pkg/logger"
)

// 支持的意图名称。
const (
	IntentGetStreamStatus    = "get_stream_status"
	IntentGetPlatformInfo    = "get_platform_info"
	IntentGetViewerCount     = "get_viewer_count"
	IntentHandleTechIssue    = "handle_technical_issue"
	IntentGetSocialLinks     = "get_social_links"
	IntentGetStreamSchedule  = "get_stream_schedule"
	IntentLogUserInteraction = "log_user_interaction"
	IntentCollectFeedback    = "collect_feedback"
)

// 对话槽位名称，由宿主框架维护。
const (
	SlotLastInteraction    = "last_interaction"
	SlotCollectingFeedback = "collecting_feedback"
)

// Request 描述一次待分发的意图请求。LatestIntent 是宿主框架对用户
// 最新消息识别出的意图，可能与被触发的动作意图不同。
type Request struct {
	Intent       string
	SenderID     string
	Message      string
	LatestIntent string
}

// Result 是一次分发的产物。Message 为空表示该意图不产生用户可见回复。
type Result struct {
	Message     string
	SlotUpdates map[string]any
}

// StatusFetcher 定义获取远端直播状态所需的能力。
type StatusFetcher interface {
	FetchStreams(ctx context.Context) (status.StreamList, error)
	FetchPlatforms(ctx context.Context) (status.PlatformList, error)
}

// Recorder 定义互动记录能力，通常由 interaction.Service 提供。
type Recorder interface {
	Record(ctx context.Context, req interaction.RecordRequest) (*interaction.Event, error)
}

type handlerFunc func(ctx context.Context, req Request) Result

// Dispatcher 将意图路由到对应的处理函数。分发过程永不失败：
// 远端故障在格式化层被吸收为兜底文案，未知意图返回通用回复。
type Dispatcher struct {
	fetcher  StatusFetcher
	catalog  *content.Catalog
	recorder Recorder
	viewers  viewers.Provider
	handlers map[string]handlerFunc
}

// Option 定义可选配置。
type Option func(*Dispatcher)

// WithRecorder 配置互动记录服务。记录失败只影响分析数据，不影响回复。
func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = recorder
	}
}

// WithViewerProvider 接入观众数数据源。未配置时回复占位文案。
func WithViewerProvider(provider viewers.Provider) Option {
	return func(d *Dispatcher) {
		d.viewers = provider
	}
}

// NewDispatcher 构造 Dispatcher。catalog 为空时使用内置默认文案。
func NewDispatcher(fetcher StatusFetcher, catalog *content.Catalog, opts ...Option) *Dispatcher {
	if catalog == nil {
		catalog = content.NewCatalog(content.Definitions{})
	}
	d := &Dispatcher{fetcher: fetcher, catalog: catalog}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	d.handlers = map[string]handlerFunc{
		IntentGetStreamStatus:    d.handleStreamStatus,
		IntentGetPlatformInfo:    d.handlePlatformInfo,
		IntentGetViewerCount:     d.handleViewerCount,
		IntentHandleTechIssue:    d.handleTechnicalIssue,
		IntentGetSocialLinks:     d.handleSocialLinks,
		IntentGetStreamSchedule:  d.handleSchedule,
		IntentLogUserInteraction: d.handleLogInteraction,
		IntentCollectFeedback:    d.handleCollectFeedback,
	}
	return d
}

// Intents 返回所有已注册的意图名，按字典序排列。
func (d *Dispatcher) Intents() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize 将宿主框架传入的动作名归一为意图名：
// 统一小写并去掉 Rasa 风格的 action_ 前缀。
func Normalize(intent string) string {
	intent = strings.ToLower(strings.TrimSpace(intent))
	return strings.TrimPrefix(intent, "action_")
}

// Dispatch 执行一次意图分发，永远返回有效的 Result。
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	intent := Normalize(req.Intent)
	req.Intent = intent

	handler, ok := d.handlers[intent]
	var result Result
	if ok {
		result = handler(ctx, req)
	} else {
		logger.L().Warn("收到未知意图", slog.String("intent", intent), slog.String("sender_id", req.SenderID))
		result = Result{Message: d.catalog.Unknown()}
	}

	d.record(ctx, req, result)
	return result
}

func (d *Dispatcher) record(ctx context.Context, req Request, result Result) {
	if d.recorder == nil {
		return
	}
	_, err := d.recorder.Record(ctx, interaction.RecordRequest{
		SenderID: req.SenderID,
		Intent:   req.Intent,
		Message:  req.Message,
		Reply:    result.Message,
	})
	if err != nil {
		logger.L().Warn("记录互动失败",
			slog.Any("error", err),
			slog.String("intent", req.Intent),
			slog.String("sender_id", req.SenderID),
		)
	}
}

func (d *Dispatcher) handleStreamStatus(ctx context.Context, _ Request) Result {
	var streams status.StreamList
	var err error
	if d.fetcher != nil {
		streams, err = d.fetcher.FetchStreams(ctx)
	} else {
		err = xerrors.New(xerrors.CodeInitializationFailure, "状态客户端未配置")
	}
	if err != nil {
		logger.L().Warn("获取直播状态失败", slog.Any("error", err))
	}
	return Result{Message: status.RenderStreamStatus(streams, err)}
}

func (d *Dispatcher) handlePlatformInfo(ctx context.Context, _ Request) Result {
	var platforms status.PlatformList
	var err error
	if d.fetcher != nil {
		platforms, err = d.fetcher.FetchPlatforms(ctx)
	} else {
		err = xerrors.New(xerrors.CodeInitializationFailure, "状态客户端未配置")
	}
	if err != nil {
		logger.L().Warn("获取平台状态失败", slog.Any("error", err))
	}
	return Result{Message: status.RenderPlatformStatus(platforms, err)}
}

func (d *Dispatcher) handleViewerCount(ctx context.Context, _ Request) Result {
	if d.viewers == nil {
		return Result{Message: d.catalog.ViewerCount()}
	}
	count, err := d.viewers.ViewerCount(ctx)
	if err != nil {
		logger.L().Warn("获取观众数失败", slog.Any("error", err))
		return Result{Message: d.catalog.ViewerCount()}
	}
	return Result{Message: fmt.Sprintf("👥 %d viewer(s) watching right now!", count.Total)}
}

func (d *Dispatcher) handleTechnicalIssue(_ context.Context, req Request) Result {
	return Result{Message: d.catalog.MatchTip(req.Message)}
}

func (d *Dispatcher) handleSocialLinks(_ context.Context, _ Request) Result {
	return Result{Message: d.catalog.SocialLinks()}
}

func (d *Dispatcher) handleSchedule(_ context.Context, _ Request) Result {
	return Result{Message: d.catalog.Schedule()}
}

func (d *Dispatcher) handleLogInteraction(_ context.Context, req Request) Result {
	return Result{SlotUpdates: map[string]any{SlotLastInteraction: strings.TrimSpace(req.LatestIntent)}}
}

func (d *Dispatcher) handleCollectFeedback(_ context.Context, _ Request) Result {
	return Result{
		Message:     d.catalog.FeedbackPrompt(),
		SlotUpdates: map[string]any{SlotCollectingFeedback: true},
	}
}
