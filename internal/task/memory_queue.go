package task

import (
	"context"
	"errors"
	"sync"
)

// MemoryQueue 是进程内的无界 FIFO 信箱。Publish 永不阻塞；
// 进程退出时未消费的内容随之丢弃，对应任务的记录停留在 queued 状态。
type MemoryQueue struct {
	mu     sync.Mutex
	items  []Envelope
	wake   chan struct{}
	done   chan struct{}
	closed bool
}

// NewMemoryQueue 创建一个内存队列。
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Publish 将任务追加到队列尾部。
func (q *MemoryQueue) Publish(_ context.Context, env Envelope) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errors.New("队列已关闭")
	}
	q.items = append(q.items, env)
	q.signal()
	return nil
}

// Consume 启动指定数量的工作协程按 FIFO 顺序消费任务。
// workerCount 为 1 时严格保证提交顺序处理且同一时刻至多一个任务在处理。
func (q *MemoryQueue) Consume(ctx context.Context, workerCount int, handler Handler) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if env, ok := q.pop(); ok {
					_ = handler(ctx, env)
					continue
				}
				select {
				case <-ctx.Done():
					return
				case <-q.done:
					// 关闭后先排空剩余任务再退出。
					if env, ok := q.pop(); ok {
						_ = handler(ctx, env)
						continue
					}
					return
				case <-q.wake:
				}
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// Close 关闭内存队列。
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) pop() (Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Envelope{}, false
	}
	env := q.items[0]
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.signal()
	}
	return env, true
}

// signal 必须在持有锁时调用。
func (q *MemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

var _ Queue = (*MemoryQueue)(nil)
