// Package lifecycle sequences process boot, readiness, and shutdown.
//
// The Controller drives a fixed boot order (Load then Start), owns the
// liveness state and uptime clock, registers the process-termination hook,
// and guarantees that the shutdown cleanup sequence runs exactly once no
// matter how many goroutines race to trigger it. Blocking and parking are
// delegated to the task executor's consumer loop.
package lifecycle

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/executor"
)

// Configurer wires the domain facades during boot and tears them down during
// shutdown. Dispose must tolerate a partially completed Initialize.
type Configurer interface {
	Initialize(c *Controller) error
	Dispose(c *Controller)
}

// CommandExecutor runs a console command line. The controller treats command
// execution as fire-and-forget; failures are logged, never propagated.
type CommandExecutor interface {
	Execute(line string) error
}

// WebServer is the bindable network resource owned by the process. Bind must
// fail synchronously when the listener cannot be acquired.
type WebServer interface {
	Bind() error
	Stop(ctx context.Context) error
	Addr() string
}

// RepositoryLister enumerates the configured artifact repositories. Used by
// Load after the configurer has initialized them.
type RepositoryLister interface {
	Names() []string
}

// Options configures a Controller.
type Options struct {
	Executor   *executor.Executor
	Configurer Configurer
	Hook       Hook

	// Version is the build version logged during Load.
	Version string

	// BootstrapCommand runs synchronously at the end of Start.
	BootstrapCommand string

	// StopTimeout bounds the web server shutdown during Shutdown.
	StopTimeout time.Duration
}

// Controller orchestrates the process lifecycle.
type Controller struct {
	mu    sync.Mutex
	state atomic.Int32

	exec       *executor.Executor
	configurer Configurer
	hook       Hook

	console CommandExecutor
	web     WebServer
	repos   RepositoryLister

	version          string
	bootstrapCommand string
	stopTimeout      time.Duration

	started time.Time
}

// NewController creates a controller in the uninitialized state.
func NewController(opts Options) *Controller {
	if opts.StopTimeout == 0 {
		opts.StopTimeout = 10 * time.Second
	}
	return &Controller{
		exec:             opts.Executor,
		configurer:       opts.Configurer,
		hook:             opts.Hook,
		version:          opts.Version,
		bootstrapCommand: opts.BootstrapCommand,
		stopTimeout:      opts.StopTimeout,
	}
}

// Attach hands the controller the collaborators built by the configurer.
// Called from Configurer.Initialize; any of the arguments may be nil when the
// corresponding facade is not wired.
func (c *Controller) Attach(web WebServer, console CommandExecutor, repos RepositoryLister) {
	c.web = web
	c.console = console
	c.repos = repos
}

// Executor returns the task executor owned by this process.
func (c *Controller) Executor() *executor.Executor {
	return c.exec
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Alive reports whether the process is in the running state.
func (c *Controller) Alive() bool {
	return c.State() == StateRunning
}

// Uptime returns the time elapsed since Start. The anchor carries Go's
// monotonic clock reading, so the result is immune to wall-clock adjustment
// and non-decreasing across calls. Before Start it is zero.
func (c *Controller) Uptime() time.Duration {
	c.mu.Lock()
	started := c.started
	c.mu.Unlock()

	if started.IsZero() {
		return 0
	}
	return time.Since(started)
}

// Version returns the build version the controller was created with.
func (c *Controller) Version() string {
	return c.version
}

// Load performs the ordered initialization steps. The step order is a
// contract: repositories can only be enumerated after the configurer has
// initialized them.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.transition(StateUninitialized, StateLoading); err != nil {
		return err
	}

	logger.Info("Quarry repository manager", "version", c.version)
	c.logEnvironment()

	if c.configurer != nil {
		if err := c.configurer.Initialize(c); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
	}

	if c.repos != nil {
		names := c.repos.Names()
		logger.Info("Repositories loaded", "count", len(names))
		for _, name := range names {
			logger.Info("+ Repository", logger.KeyRepository, name)
		}
	}

	return ctx.Err()
}

// Start binds the web server, registers the termination hook, and fires the
// startup commands. On bind failure it logs the error, runs the shutdown
// sequence, and returns the error; liveness stays observable through Alive.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if State(c.state.Load()) != StateLoading {
		c.mu.Unlock()
		return fmt.Errorf("cannot start from state %q", c.State())
	}
	c.started = time.Now()
	c.state.Store(int32(StateRunning))
	c.mu.Unlock()

	if c.web != nil {
		if err := c.web.Bind(); err != nil {
			logger.Error("Failed to bind web server", "error", err)
			c.Shutdown()
			return fmt.Errorf("bind failed: %w", err)
		}
		logger.Info("Web server listening", "address", c.web.Addr())
	}

	if c.hook != nil {
		c.hook.Register(func() {
			logger.Info("Termination signal received")
			c.Shutdown()
		})
	}

	c.runCommand(c.bootstrapCommand)

	// Fire the status command asynchronously. Routing it through the executor
	// keeps it trackable: it drains with the next batch instead of running on
	// an untracked goroutine.
	if c.console != nil && c.exec != nil {
		console := c.console
		c.exec.Schedule(func() error {
			return console.Execute("status")
		})
	}

	return ctx.Err()
}

// Await parks the calling goroutine in the executor's consumer loop until the
// process shuts down, then runs onExit.
func (c *Controller) Await(onExit func()) {
	if c.exec == nil {
		if onExit != nil {
			onExit()
		}
		return
	}
	c.exec.Await(onExit)
}

// Schedule hands a task to the executor from any goroutine.
func (c *Controller) Schedule(task executor.Task) {
	if c.exec != nil {
		c.exec.Schedule(task)
	}
}

// Shutdown runs the cleanup sequence exactly once. Concurrent and repeated
// callers beyond the first are no-ops; none of them error. Stopping the task
// executor is deliberately left to the configurer's Dispose so the owning
// process controls how the consumer loop and the shutdown converge.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if State(c.state.Load()) >= StateShuttingDown {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(StateShuttingDown))
	c.mu.Unlock()

	logger.Info("Shutting down", "uptime", c.Uptime().Round(time.Millisecond))

	// Best-effort: removal must not fail when the process is already inside
	// its termination sequence.
	if c.hook != nil {
		c.hook.Deregister()
	}

	if c.configurer != nil {
		c.configurer.Dispose(c)
	}

	if c.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), c.stopTimeout)
		defer cancel()
		if err := c.web.Stop(ctx); err != nil {
			logger.Warn("Web server shutdown error", "error", err)
		}
	}

	c.state.Store(int32(StateStopped))
	logger.Info("Shutdown complete")
}

// transition advances the state under the lock, rejecting anything but the
// expected predecessor.
func (c *Controller) transition(from, to State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if State(c.state.Load()) != from {
		return fmt.Errorf("cannot enter state %q from %q", to, c.State())
	}
	c.state.Store(int32(to))
	return nil
}

// runCommand executes a console command synchronously, logging failures.
func (c *Controller) runCommand(line string) {
	if c.console == nil || line == "" {
		return
	}
	if err := c.console.Execute(line); err != nil {
		logger.Warn("Startup command failed", "command", line, "error", err)
	}
}

// logEnvironment records the facts about the host the process runs on.
func (c *Controller) logEnvironment() {
	wd, _ := os.Getwd()
	logger.Info("Environment",
		"go", runtime.Version(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"cpus", runtime.NumCPU(),
		"dir", wd,
	)
}
