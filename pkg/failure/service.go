// Package failure collects runtime failures from across the process.
//
// The service is the sink behind the executor's task-failure reporting and
// anything else that wants to surface an error without aborting its caller.
// Entries are kept in a bounded in-memory buffer for the API and console.
package failure

import (
	"sync"
	"time"

	"github.com/quarryhq/quarry/internal/logger"
)

// DefaultCapacity is the number of failures retained when no capacity is
// given. Older entries are discarded first.
const DefaultCapacity = 100

// Entry is a single recorded failure.
type Entry struct {
	Origin  string    `json:"origin"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Service records failures and exposes them for inspection.
type Service struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewService creates a failure service retaining up to capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewService(capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Service{capacity: capacity}
}

// ReportFailure logs and records a failure. Never fails, never panics with a
// nil error.
func (s *Service) ReportFailure(origin string, err error) {
	if err == nil {
		return
	}

	logger.Error("Failure reported", logger.KeyOrigin, origin, "error", err)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, Entry{
		Origin:  origin,
		Message: err.Error(),
		Time:    time.Now(),
	})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
}

// Snapshot returns a copy of the recorded failures, oldest first.
func (s *Service) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Count returns the number of retained failures.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
