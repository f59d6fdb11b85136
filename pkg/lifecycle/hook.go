package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Hook is a best-effort registration for a process-termination callback.
// Register installs the callback, Deregister removes it; both are idempotent
// and Deregister must not fail while the process is already exiting.
type Hook interface {
	Register(onTerminate func())
	Deregister()
}

// SignalHook triggers the termination callback on SIGINT or SIGTERM.
type SignalHook struct {
	mu      sync.Mutex
	sigs    chan os.Signal
	done    chan struct{}
	signals []os.Signal
}

// NewSignalHook creates a hook listening for the given signals, defaulting to
// SIGINT and SIGTERM.
func NewSignalHook(signals ...os.Signal) *SignalHook {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}
	return &SignalHook{signals: signals}
}

// Register starts delivering termination signals to onTerminate. A second
// Register without a Deregister in between is a no-op.
func (h *SignalHook) Register(onTerminate func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sigs != nil {
		return
	}

	h.sigs = make(chan os.Signal, 1)
	h.done = make(chan struct{})
	signal.Notify(h.sigs, h.signals...)

	go func(sigs chan os.Signal, done chan struct{}) {
		select {
		case <-sigs:
			onTerminate()
		case <-done:
		}
	}(h.sigs, h.done)
}

// Deregister stops signal delivery. Removal is best-effort: it never fails,
// even when invoked from the termination callback itself while the process is
// exiting.
func (h *SignalHook) Deregister() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sigs == nil {
		return
	}

	signal.Stop(h.sigs)
	close(h.done)
	h.sigs = nil
	h.done = nil
}
