package stats

import (
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/pkg/executor"
	"github.com/quarryhq/quarry/pkg/failure"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := badgerdb.Open(badgerdb.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db)
}

func TestIncrementAndCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	const path = "releases/com/example/app/1.0/app-1.0.jar"
	count, err := store.Count(path)
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Increment(path))
	}

	count, err = store.Count(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestTopOrdersByCount(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.Increment("releases/a.jar"))
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Increment("releases/b.jar"))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Increment("snapshots/c.jar"))
	}

	top, err := store.Top(2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, Record{Path: "releases/b.jar", Count: 5}, top[0])
	assert.Equal(t, Record{Path: "snapshots/c.jar", Count: 2}, top[1])
}

func TestServiceRecordsThroughExecutor(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	failures := failure.NewService(10)
	exec := executor.New(failures)

	svc := NewService(store, exec, true)
	svc.Record("releases", "com/example/app/1.0/app-1.0.jar")
	svc.Record("releases", "com/example/app/1.0/app-1.0.jar")

	// Nothing is persisted until the consumer drains the queue.
	exec.Stop()
	exec.Await(nil)

	count, err := store.Count("releases/com/example/app/1.0/app-1.0.jar")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
	assert.Zero(t, failures.Count())

	total, err := svc.TotalResolved()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
}

func TestDisabledServiceIsNoOp(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	exec := executor.New(nil)

	svc := NewService(store, exec, false)
	svc.Record("releases", "a.jar")

	exec.Stop()
	exec.Await(nil)

	count, err := store.Count("releases/a.jar")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, svc.Enabled())
}
