// Package console implements the command facility of the server.
//
// Commands are registered by name and executed from the CLI (through the
// REST API), from the lifecycle controller during boot, or internally. The
// controller treats execution as fire-and-forget; commands report through
// the logger.
package console

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/quarryhq/quarry/internal/logger"
)

// Command is a single console command.
type Command interface {
	Name() string
	Description() string
	Execute(args []string) error
}

// Console dispatches command lines to registered commands.
type Console struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// New creates an empty console.
func New() *Console {
	return &Console{commands: make(map[string]Command)}
}

// Register adds a command, replacing any previous command with the same name.
func (c *Console) Register(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[cmd.Name()] = cmd
}

// Execute parses a command line and runs the matching command.
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])

	c.mu.RLock()
	cmd, ok := c.commands[name]
	c.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}

	logger.Debug("Executing command", logger.KeyCommand, line)
	if err := cmd.Execute(fields[1:]); err != nil {
		return fmt.Errorf("command %s failed: %w", name, err)
	}
	return nil
}

// Commands returns the registered commands sorted by name.
func (c *Console) Commands() []Command {
	c.mu.RLock()
	defer c.mu.RUnlock()

	commands := make([]Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		commands = append(commands, cmd)
	}
	sort.Slice(commands, func(i, j int) bool { return commands[i].Name() < commands[j].Name() })
	return commands
}
