package stats

import (
	"fmt"

	"github.com/quarryhq/quarry/pkg/executor"
)

// Scheduler hands tasks off to the process's consumer loop.
type Scheduler interface {
	Schedule(task executor.Task)
}

// Service records artifact resolutions asynchronously.
type Service struct {
	store     *Store
	scheduler Scheduler
	enabled   bool
}

// NewService creates a statistics service. When disabled, Record is a no-op.
func NewService(store *Store, scheduler Scheduler, enabled bool) *Service {
	return &Service{store: store, scheduler: scheduler, enabled: enabled}
}

// Enabled reports whether statistics collection is active.
func (s *Service) Enabled() bool {
	return s.enabled && s.store != nil
}

// Record schedules a counter increment for repo/path on the executor. The
// caller returns immediately; a failed increment surfaces through the
// executor's failure reporting.
func (s *Service) Record(repo, path string) {
	if !s.Enabled() || s.scheduler == nil {
		return
	}

	key := repo + "/" + path
	s.scheduler.Schedule(func() error {
		if err := s.store.Increment(key); err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		return nil
	})
}

// Top returns the n most-resolved paths.
func (s *Service) Top(n int) ([]Record, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.Top(n)
}

// TotalResolved sums all counters.
func (s *Service) TotalResolved() (uint64, error) {
	if s.store == nil {
		return 0, nil
	}

	records, err := s.store.All()
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, r := range records {
		total += r.Count
	}
	return total, nil
}
