package executor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter collects reported failures for assertions.
type recordingReporter struct {
	mu       sync.Mutex
	origins  []string
	failures []error
}

func (r *recordingReporter) ReportFailure(origin string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.origins = append(r.origins, origin)
	r.failures = append(r.failures, err)
}

func (r *recordingReporter) snapshot() ([]string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.origins...), append([]error(nil), r.failures...)
}

// runConsumer starts Await on a background goroutine and returns a channel
// that closes once the loop has exited.
func runConsumer(e *Executor) <-chan struct{} {
	done := make(chan struct{})
	go e.Await(func() { close(done) })
	return done
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer loop did not exit in time")
	}
}

func TestExecutor_StartsAlive(t *testing.T) {
	t.Parallel()

	e := New(nil)
	assert.True(t, e.IsAlive())
	assert.Equal(t, 0, e.Pending())
}

func TestExecutor_ExecutesTasksInEnqueueOrder(t *testing.T) {
	t.Parallel()

	e := New(nil)

	const n = 200
	var mu sync.Mutex
	var order []int

	for i := 0; i < n; i++ {
		i := i
		e.Schedule(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	e.Stop()

	waitDone(t, runConsumer(e))

	require.Len(t, order, n)
	for i, got := range order {
		assert.Equal(t, i, got, "task executed out of order")
	}
}

func TestExecutor_FailingTaskDoesNotBlockLaterTasks(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	e := New(reporter)

	var mu sync.Mutex
	counter := 0
	increment := func() error {
		mu.Lock()
		counter++
		mu.Unlock()
		return nil
	}

	e.Schedule(increment)
	e.Schedule(func() error { return errors.New("boom") })
	e.Schedule(increment)
	e.Stop()

	waitDone(t, runConsumer(e))

	assert.Equal(t, 2, counter)

	origins, failures := reporter.snapshot()
	require.Len(t, failures, 1)
	assert.Equal(t, Origin, origins[0])
	assert.EqualError(t, failures[0], "boom")
}

func TestExecutor_PanickingTaskIsReported(t *testing.T) {
	t.Parallel()

	reporter := &recordingReporter{}
	e := New(reporter)

	executed := false
	e.Schedule(func() error { panic("kaboom") })
	e.Schedule(func() error { executed = true; return nil })
	e.Stop()

	waitDone(t, runConsumer(e))

	assert.True(t, executed, "task after panic should still run")

	origins, failures := reporter.snapshot()
	require.Len(t, failures, 1)
	assert.Equal(t, Origin, origins[0])
	assert.Contains(t, failures[0].Error(), "kaboom")
}

func TestExecutor_StopWakesBlockedConsumer(t *testing.T) {
	t.Parallel()

	e := New(nil)
	done := runConsumer(e)

	// Give the consumer a moment to park on the empty queue.
	time.Sleep(20 * time.Millisecond)
	e.Stop()

	waitDone(t, done)
	assert.False(t, e.IsAlive())
}

func TestExecutor_ConcurrentProducersAllExecute(t *testing.T) {
	t.Parallel()

	e := New(nil)
	done := runConsumer(e)

	const producers = 16
	const perProducer = 50

	var mu sync.Mutex
	executed := 0

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				e.Schedule(func() error {
					mu.Lock()
					executed++
					mu.Unlock()
					return nil
				})
			}
		}()
	}
	wg.Wait()
	e.Stop()

	waitDone(t, done)
	assert.Equal(t, producers*perProducer, executed)
}

func TestExecutor_DrainsTasksScheduledConcurrentlyWithStop(t *testing.T) {
	t.Parallel()

	e := New(nil)

	executed := false
	e.Stop()
	// Await has not started yet; the final drain pass must pick this up.
	e.Schedule(func() error { executed = true; return nil })

	waitDone(t, runConsumer(e))
	assert.True(t, executed, "task scheduled after Stop was dropped")
}

func TestExecutor_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	e := New(nil)
	done := runConsumer(e)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Stop()
		}()
	}
	wg.Wait()

	waitDone(t, done)
	assert.False(t, e.IsAlive())
}

func TestExecutor_SchedulingFromTask(t *testing.T) {
	t.Parallel()

	e := New(nil)
	done := runConsumer(e)

	inner := make(chan struct{})
	e.Schedule(func() error {
		e.Schedule(func() error {
			close(inner)
			return nil
		})
		return nil
	})

	select {
	case <-inner:
	case <-time.After(5 * time.Second):
		t.Fatal("task scheduled from consumer never ran")
	}

	e.Stop()
	waitDone(t, done)
}
