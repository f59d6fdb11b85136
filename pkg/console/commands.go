package console

import (
	"runtime"
	"strings"
	"time"

	"github.com/quarryhq/quarry/internal/logger"
	"github.com/quarryhq/quarry/pkg/executor"
	"github.com/quarryhq/quarry/pkg/failure"
)

// Runtime is the view of the process the built-in commands need. Satisfied
// by lifecycle.Controller.
type Runtime interface {
	Alive() bool
	Uptime() time.Duration
	Version() string
	Shutdown()
	Schedule(task executor.Task)
}

// RegisterDefaults installs the built-in command set.
func RegisterDefaults(c *Console, rt Runtime, failures *failure.Service) {
	c.Register(&helpCommand{console: c})
	c.Register(&statusCommand{runtime: rt, failures: failures})
	c.Register(&versionCommand{runtime: rt})
	c.Register(&failuresCommand{failures: failures})
	c.Register(&stopCommand{runtime: rt})
}

type helpCommand struct {
	console *Console
}

func (h *helpCommand) Name() string        { return "help" }
func (h *helpCommand) Description() string { return "List available commands" }

func (h *helpCommand) Execute(args []string) error {
	for _, cmd := range h.console.Commands() {
		logger.Info("Command", "name", cmd.Name(), "description", cmd.Description())
	}
	return nil
}

type statusCommand struct {
	runtime  Runtime
	failures *failure.Service
}

func (s *statusCommand) Name() string        { return "status" }
func (s *statusCommand) Description() string { return "Show process status" }

func (s *statusCommand) Execute(args []string) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	failureCount := 0
	if s.failures != nil {
		failureCount = s.failures.Count()
	}

	logger.Info("Status",
		"alive", s.runtime.Alive(),
		logger.KeyUptime, s.runtime.Uptime().Round(time.Second),
		"version", s.runtime.Version(),
		"memory_mb", mem.Alloc/1024/1024,
		"goroutines", runtime.NumGoroutine(),
		"failures", failureCount,
	)
	return nil
}

type versionCommand struct {
	runtime Runtime
}

func (v *versionCommand) Name() string        { return "version" }
func (v *versionCommand) Description() string { return "Show version information" }

func (v *versionCommand) Execute(args []string) error {
	logger.Info("Quarry", "version", v.runtime.Version(), "go", runtime.Version())
	return nil
}

type failuresCommand struct {
	failures *failure.Service
}

func (f *failuresCommand) Name() string        { return "failures" }
func (f *failuresCommand) Description() string { return "List recorded failures" }

func (f *failuresCommand) Execute(args []string) error {
	entries := f.failures.Snapshot()
	if len(entries) == 0 {
		logger.Info("No failures recorded")
		return nil
	}

	for _, entry := range entries {
		logger.Info("Failure",
			logger.KeyOrigin, entry.Origin,
			"message", entry.Message,
			"time", entry.Time.Format(time.RFC3339),
		)
	}
	return nil
}

type stopCommand struct {
	runtime Runtime
}

func (s *stopCommand) Name() string        { return "stop" }
func (s *stopCommand) Description() string { return "Shut the server down" }

// Execute schedules the shutdown on the executor instead of blocking the
// caller; the dispose sequence stops the consumer loop.
func (s *stopCommand) Execute(args []string) error {
	if len(args) > 0 && strings.ToLower(args[0]) != "now" {
		logger.Warn("Ignoring unknown stop argument", "argument", args[0])
	}

	s.runtime.Schedule(func() error {
		s.runtime.Shutdown()
		return nil
	})
	return nil
}
