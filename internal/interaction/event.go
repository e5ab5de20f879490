package interaction

import (
	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

// Status 表示互动事件在归档流水线中的状态。
type Status string

const (
	StatusPending   Status = "pending"
	StatusArchiving Status = "archiving"
	StatusArchived  Status = "archived"
	StatusFailed    Status = "failed"
)

// Event 描述一次用户与机器人的互动，供离线分析使用。
type Event struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	Intent     string `json:"intent"`
	Message    string `json:"message,omitempty"`
	Reply      string `json:"reply,omitempty"`
	Status     Status `json:"status"`
	Attempts   int    `json:"attempts"`
	MaxRetries int    `json:"max_retries"`
	LastError  string `json:"last_error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

var (
	// ErrEventNotFound 表示指定的互动事件不存在。
	ErrEventNotFound = xerrors.New(CodeEventNotFound, "interaction event not found")
	// ErrEventConflict 表示事件在当前状态下无法进行所请求的操作。
	ErrEventConflict = xerrors.New(CodeEventConflict, "interaction event conflict", xerrors.WithSeverity(xerrors.SeverityWarning))
	// ErrEventArchived 表示事件已经完成归档。
	ErrEventArchived = xerrors.New(CodeEventArchived, "interaction event already archived", xerrors.WithSeverity(xerrors.SeverityInfo))
	// ErrEventExhausted 表示事件的归档重试次数已经耗尽。
	ErrEventExhausted = xerrors.New(CodeEventExhausted, "interaction event retries exhausted", xerrors.WithSeverity(xerrors.SeverityCritical))
)

const (
	CodeEventNotFound   xerrors.Code = "INTERACTION_NOT_FOUND"
	CodeEventConflict   xerrors.Code = "INTERACTION_CONFLICT"
	CodeEventArchived   xerrors.Code = "INTERACTION_ARCHIVED"
	CodeEventExhausted  xerrors.Code = "INTERACTION_RETRIES_EXHAUSTED"
	CodeEventValidation xerrors.Code = "INTERACTION_VALIDATION_FAILED"
	CodeEventPublish    xerrors.Code = "INTERACTION_PUBLISH_FAILED"
	CodeEventArchiving  xerrors.Code = "INTERACTION_ARCHIVING_FAILED"
)

func init() {
	xerrors.Register(CodeEventNotFound, xerrors.Attributes{
		Message:   "interaction event not found",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeEventConflict, xerrors.Attributes{
		Message:   "interaction event conflict",
		Severity:  xerrors.SeverityWarning,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeEventArchived, xerrors.Attributes{
		Message:   "interaction event already archived",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeEventExhausted, xerrors.Attributes{
		Message:   "interaction event retries exhausted",
		Severity:  xerrors.SeverityCritical,
		Retryable: false,
		Alert:     true,
	})
	xerrors.Register(CodeEventValidation, xerrors.Attributes{
		Message:   "interaction event validation failed",
		Severity:  xerrors.SeverityInfo,
		Retryable: false,
		Alert:     false,
	})
	xerrors.Register(CodeEventPublish, xerrors.Attributes{
		Message:   "failed to publish interaction event",
		Severity:  xerrors.SeverityCritical,
		Retryable: true,
		Alert:     true,
	})
	xerrors.Register(CodeEventArchiving, xerrors.Attributes{
		Message:   "interaction event archiving failed",
		Severity:  xerrors.SeverityWarning,
		Retryable: true,
		Alert:     true,
	})
}

// IsValidStatus 检查给定的事件状态是否为支持的枚举值。
func IsValidStatus(status Status) bool {
	switch status {
	case StatusPending, StatusArchiving, StatusArchived, StatusFailed:
		return true
	default:
		return false
	}
}

func cloneEvent(event *Event) *Event {
	clone := *event
	return &clone
}
