package interaction

import (
	"context"

	xerrors "github.com/xnox-me/Streamin/internal/errors"
)

// Store 抽象了互动事件的持久化接口。
type Store interface {
	Create(ctx context.Context, event *Event) error
	Get(ctx context.Context, id string) (*Event, error)
	Claim(ctx context.Context, id string) (*Event, error)
	MarkArchived(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, terminal bool) error
	List(ctx context.Context, opts ListOptions) ([]*Event, error)
	Stats(ctx context.Context, opts ListOptions) (EventStats, error)
	Close() error
}
