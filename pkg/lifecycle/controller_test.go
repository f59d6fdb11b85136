package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarryhq/quarry/pkg/executor"
)

type fakeConfigurer struct {
	initErr     error
	initCalls   atomic.Int32
	disposeCall atomic.Int32
	attachOnce  func(c *Controller)
}

func (f *fakeConfigurer) Initialize(c *Controller) error {
	f.initCalls.Add(1)
	if f.attachOnce != nil {
		f.attachOnce(c)
	}
	return f.initErr
}

func (f *fakeConfigurer) Dispose(c *Controller) {
	f.disposeCall.Add(1)
	if exec := c.Executor(); exec != nil {
		exec.Stop()
	}
}

type fakeWeb struct {
	bindErr   error
	bound     atomic.Bool
	stopped   atomic.Int32
	stopError error
}

func (f *fakeWeb) Bind() error {
	if f.bindErr != nil {
		return f.bindErr
	}
	f.bound.Store(true)
	return nil
}

func (f *fakeWeb) Stop(ctx context.Context) error {
	f.stopped.Add(1)
	return f.stopError
}

func (f *fakeWeb) Addr() string { return "127.0.0.1:0" }

type fakeHook struct {
	mu          sync.Mutex
	onTerminate func()
	registered  bool
}

func (f *fakeHook) Register(onTerminate func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onTerminate = onTerminate
	f.registered = true
}

func (f *fakeHook) Deregister() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = false
}

func (f *fakeHook) isRegistered() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.registered
}

func (f *fakeHook) fire() {
	f.mu.Lock()
	fn := f.onTerminate
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeConsole struct {
	mu       sync.Mutex
	commands []string
	err      error
}

func (f *fakeConsole) Execute(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, line)
	return f.err
}

func (f *fakeConsole) executed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type fakeRepos struct{ names []string }

func (f *fakeRepos) Names() []string { return f.names }

// newTestController builds a controller wired with fakes. The configurer
// attaches the collaborators during Initialize, mirroring production wiring.
func newTestController(t *testing.T, web *fakeWeb) (*Controller, *fakeConfigurer, *fakeHook, *fakeConsole) {
	t.Helper()

	exec := executor.New(nil)
	hook := &fakeHook{}
	console := &fakeConsole{}
	repos := &fakeRepos{names: []string{"releases", "snapshots"}}

	configurer := &fakeConfigurer{
		attachOnce: func(c *Controller) {
			c.Attach(web, console, repos)
		},
	}

	c := NewController(Options{
		Executor:         exec,
		Configurer:       configurer,
		Hook:             hook,
		Version:          "test",
		BootstrapCommand: "version",
	})
	return c, configurer, hook, console
}

func TestController_LoadTransitionsAndInitializes(t *testing.T) {
	t.Parallel()

	c, configurer, _, _ := newTestController(t, &fakeWeb{})

	require.Equal(t, StateUninitialized, c.State())
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, StateLoading, c.State())
	assert.Equal(t, int32(1), configurer.initCalls.Load())
	assert.False(t, c.Alive())
}

func TestController_LoadTwiceFails(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t, &fakeWeb{})

	require.NoError(t, c.Load(context.Background()))
	assert.Error(t, c.Load(context.Background()))
}

func TestController_StartBindsAndRunsBootstrap(t *testing.T) {
	t.Parallel()

	web := &fakeWeb{}
	c, _, hook, console := newTestController(t, web)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	assert.True(t, c.Alive())
	assert.Equal(t, StateRunning, c.State())
	assert.True(t, web.bound.Load())
	assert.True(t, hook.isRegistered())

	// Bootstrap command ran synchronously during Start.
	assert.Equal(t, []string{"version"}, console.executed())

	// The async status command drains through the executor.
	c.Executor().Stop()
	c.Await(nil)
	assert.Equal(t, []string{"version", "status"}, console.executed())
}

func TestController_StartFromWrongStateFails(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t, &fakeWeb{})
	assert.Error(t, c.Start(context.Background()))
}

func TestController_BindFailureTriggersShutdown(t *testing.T) {
	t.Parallel()

	web := &fakeWeb{bindErr: errors.New("address already in use")}
	c, configurer, hook, _ := newTestController(t, web)

	require.NoError(t, c.Load(context.Background()))
	err := c.Start(context.Background())

	require.Error(t, err)
	assert.False(t, c.Alive())
	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, int32(1), configurer.disposeCall.Load(), "dispose sequence must have run")
	assert.False(t, hook.isRegistered(), "termination hook must not be left registered")
}

func TestController_ConcurrentShutdownRunsCleanupOnce(t *testing.T) {
	t.Parallel()

	web := &fakeWeb{}
	c, configurer, _, _ := newTestController(t, web)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Shutdown()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), configurer.disposeCall.Load())
	assert.Equal(t, int32(1), web.stopped.Load())
	assert.Equal(t, StateStopped, c.State())
	assert.False(t, c.Alive())
	assert.False(t, c.Executor().IsAlive())
}

func TestController_ShutdownAfterShutdownIsNoOp(t *testing.T) {
	t.Parallel()

	web := &fakeWeb{}
	c, configurer, _, _ := newTestController(t, web)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	c.Shutdown()
	c.Shutdown()

	assert.Equal(t, int32(1), configurer.disposeCall.Load())
	assert.Equal(t, int32(1), web.stopped.Load())
}

func TestController_TerminationHookTriggersShutdown(t *testing.T) {
	t.Parallel()

	web := &fakeWeb{}
	c, configurer, hook, _ := newTestController(t, web)

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	hook.fire()

	assert.Equal(t, StateStopped, c.State())
	assert.Equal(t, int32(1), configurer.disposeCall.Load())
	assert.False(t, hook.isRegistered())
}

func TestController_UptimeIsMonotonic(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t, &fakeWeb{})

	assert.Zero(t, c.Uptime(), "uptime before start must be zero")

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	first := c.Uptime()
	delay := 20 * time.Millisecond
	time.Sleep(delay)
	second := c.Uptime()

	assert.GreaterOrEqual(t, second, first+delay)
	assert.GreaterOrEqual(t, c.Uptime(), second)
}

func TestController_AwaitRunsOnExitAfterStop(t *testing.T) {
	t.Parallel()

	c, _, _, _ := newTestController(t, &fakeWeb{})

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Start(context.Background()))

	exited := make(chan struct{})
	go c.Await(func() { close(exited) })

	c.Shutdown()

	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer loop did not exit after shutdown")
	}
}

func TestSignalHook_RegisterDeregisterIdempotent(t *testing.T) {
	t.Parallel()

	h := NewSignalHook()
	h.Register(func() {})
	h.Register(func() {})
	h.Deregister()
	h.Deregister()
}
