package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_ResultsInTaskOrder(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	errs := make([]error, 3)
	errs[1] = errors.New("task one failed")

	tasks := []Task{
		func(context.Context) error { return nil },
		func(context.Context) error { return errs[1] },
		func(context.Context) error { return nil },
	}

	results := pool.Submit(context.Background(), tasks)

	require.Len(t, results, 3)
	assert.NoError(t, results[0])
	assert.Equal(t, errs[1], results[1])
	assert.NoError(t, results[2])
}

func TestSubmit_EmptyTasks(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	assert.Nil(t, pool.Submit(context.Background(), nil))
}

func TestSubmit_BoundsConcurrency(t *testing.T) {
	const size = 2
	pool := New(size)
	defer pool.Close()

	var running, peak int32
	var mu sync.Mutex

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = func(context.Context) error {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return nil
		}
	}

	results := pool.Submit(context.Background(), tasks)

	for _, err := range results {
		assert.NoError(t, err)
	}
	assert.LessOrEqual(t, peak, int32(size))
}

func TestSubmit_CancelledContext(t *testing.T) {
	pool := New(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []Task{
		func(context.Context) error { return nil },
		func(context.Context) error { return nil },
	}

	results := pool.Submit(ctx, tasks)

	for _, err := range results {
		assert.Error(t, err)
	}
}

func TestNew_ClampsSize(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	assert.Equal(t, 1, pool.Size())
}

func TestPool_ReusableAcrossBatches(t *testing.T) {
	pool := New(2)
	defer pool.Close()

	for batch := 0; batch < 3; batch++ {
		var count int32
		tasks := make([]Task, 5)
		for i := range tasks {
			tasks[i] = func(context.Context) error {
				atomic.AddInt32(&count, 1)
				return nil
			}
		}

		results := pool.Submit(context.Background(), tasks)
		require.Len(t, results, 5)
		assert.Equal(t, int32(5), count)
	}
}
