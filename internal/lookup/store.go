package lookup

import (
	"context"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/profile"
)

// Store 抽象了查询任务状态的持久化接口。
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Claim(ctx context.Context, id string) (*Job, error)
	MarkSucceeded(ctx context.Context, id string, result profile.Result) error
	// MarkFailed 记录失败；terminal 为 false 时任务回到 pending 等待重试。
	MarkFailed(ctx context.Context, id string, code xerrors.Code, lastError string, terminal bool) error
	List(ctx context.Context, opts ListOptions) ([]*Job, error)
	Stats(ctx context.Context, opts ListOptions) (Stats, error)
	Close() error
}
