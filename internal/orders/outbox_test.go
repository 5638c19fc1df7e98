package orders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutboxRunsAllTasks(t *testing.T) {
	o := NewOutbox(2)

	var ran int32
	for i := 0; i < 10; i++ {
		o.Enqueue(Task{Name: "count", Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}})
	}

	o.Close()
	assert.Equal(t, int32(10), atomic.LoadInt32(&ran))
}

func TestOutboxIsolatesFailures(t *testing.T) {
	o := NewOutbox(1)

	var ran int32
	o.Enqueue(Task{Name: "boom", Run: func(ctx context.Context) error {
		return errors.New("smtp unreachable")
	}})
	o.Enqueue(Task{Name: "after", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	o.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran), "a failing task must not abort the others")
}
