package task

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryQueueFIFO(t *testing.T) {
	queue := NewMemoryQueue()
	ctx := context.Background()

	const total = 20
	for i := 0; i < total; i++ {
		env := Envelope{TaskID: fmt.Sprintf("task_%04d", i)}
		if err := queue.Publish(ctx, env); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	go func() {
		_ = queue.Consume(ctx, 1, func(_ context.Context, env Envelope) error {
			mu.Lock()
			seen = append(seen, env.TaskID)
			if len(seen) == total {
				close(done)
			}
			mu.Unlock()
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for consumption")
	}
	_ = queue.Close()

	mu.Lock()
	defer mu.Unlock()
	for i, id := range seen {
		want := fmt.Sprintf("task_%04d", i)
		if id != want {
			t.Fatalf("position %d: got %s, want %s", i, id, want)
		}
	}
}

func TestMemoryQueuePublishNeverBlocks(t *testing.T) {
	queue := NewMemoryQueue()
	ctx := context.Background()

	// 无消费者时也能持续入队，队列没有容量上限。
	start := time.Now()
	for i := 0; i < 10000; i++ {
		if err := queue.Publish(ctx, Envelope{TaskID: fmt.Sprintf("task_%d", i)}); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("publish took too long: %v", elapsed)
	}
	_ = queue.Close()
}

func TestMemoryQueuePublishAfterClose(t *testing.T) {
	queue := NewMemoryQueue()
	_ = queue.Close()

	if err := queue.Publish(context.Background(), Envelope{TaskID: "task_x"}); err == nil {
		t.Fatal("publish after close should fail")
	}
}

func TestMemoryQueueCloseDrainsRemaining(t *testing.T) {
	queue := NewMemoryQueue()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := queue.Publish(ctx, Envelope{TaskID: fmt.Sprintf("task_%d", i)}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	_ = queue.Close()

	var mu sync.Mutex
	var count int
	finished := make(chan struct{})
	go func() {
		_ = queue.Consume(ctx, 1, func(_ context.Context, _ Envelope) error {
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("consume did not return after close")
	}
	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Fatalf("expected all 5 items drained, got %d", count)
	}
}

func TestMemoryQueueConsumeStopsOnCancel(t *testing.T) {
	queue := NewMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())

	finished := make(chan error, 1)
	go func() {
		finished <- queue.Consume(ctx, 1, func(context.Context, Envelope) error { return nil })
	}()

	cancel()
	select {
	case err := <-finished:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("consume did not return after cancel")
	}
	_ = queue.Close()
}
