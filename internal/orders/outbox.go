package orders

import (
	"context"
	"log"
	"sync"
	"time"
)

// Task is one best-effort post-confirmation side effect.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Outbox is an in-process task queue for side effects that must never hold
// up, or roll back, a confirmed payment. Each task runs in isolation: one
// failure is logged and does not abort the others.
type Outbox struct {
	tasks   chan Task
	wg      sync.WaitGroup
	timeout time.Duration

	closeOnce sync.Once
}

// NewOutbox starts the given number of workers. workers < 1 is clamped to 1.
func NewOutbox(workers int) *Outbox {
	if workers < 1 {
		workers = 1
	}

	o := &Outbox{
		tasks:   make(chan Task, 64),
		timeout: 30 * time.Second,
	}

	for i := 0; i < workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}

	return o
}

func (o *Outbox) worker() {
	defer o.wg.Done()
	for task := range o.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		if err := task.Run(ctx); err != nil {
			log.Printf("[Outbox] task %s failed: %v", task.Name, err)
		}
		cancel()
	}
}

// Enqueue hands a task to the workers without blocking the request path.
// When the queue is full the task runs inline as a fallback; dropping it
// silently would lose a side effect entirely.
func (o *Outbox) Enqueue(task Task) {
	select {
	case o.tasks <- task:
	default:
		log.Printf("[Outbox] queue full, running task %s inline", task.Name)
		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()
		if err := task.Run(ctx); err != nil {
			log.Printf("[Outbox] task %s failed: %v", task.Name, err)
		}
	}
}

// Close drains outstanding tasks and stops the workers.
func (o *Outbox) Close() {
	o.closeOnce.Do(func() {
		close(o.tasks)
	})
	o.wg.Wait()
}
