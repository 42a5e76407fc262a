package task

import (
	"context"
)

// Envelope 是在队列中流转的一项待处理任务。
type Envelope struct {
	TaskID string         `json:"task_id"`
	Params map[string]any `json:"params,omitempty"`
}

// Handler 处理来自队列的任务。
type Handler func(ctx context.Context, env Envelope) error

// Producer 负责向队列投递任务。
type Producer interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Consumer 负责从队列中消费任务。
type Consumer interface {
	Consume(ctx context.Context, workerCount int, handler Handler) error
	Close() error
}

// Queue 同时具备生产者与消费者能力。
type Queue interface {
	Producer
	Consumer
}
