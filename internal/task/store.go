package task

import "context"

// Store 抽象了任务状态的持久化接口。
// Save 是按 task_id 的原子 upsert：记录不存在则创建，存在则整体替换
// （CreatedAt 保留），并发读取不会观察到中间状态。
type Store interface {
	Save(ctx context.Context, task *Task) error
	Get(ctx context.Context, id string) (*Task, error)
	List(ctx context.Context, opts ListOptions) ([]*Task, error)
	Stats(ctx context.Context, opts ListOptions) (TaskStats, error)
	Close() error
}
