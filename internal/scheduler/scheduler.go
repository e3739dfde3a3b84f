// Package scheduler runs the periodic background jobs: the gate deadline
// sweep, channel member-count snapshots and subscription expiry reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"groupsight/lib/sl"

	"github.com/robfig/cron/v3"
)

// Job defines a periodic background task.
type Job interface {
	// Name returns a unique identifier for this job.
	Name() string

	// Schedule returns a 5-field cron expression (e.g., "*/5 * * * *").
	Schedule() string

	// Run executes the job. Implementations should check ctx.Done() for
	// graceful cancellation.
	Run(ctx context.Context) error
}

// Scheduler manages periodic job execution using cron expressions.
// Each job holds a per-job mutex so a slow tick is skipped, never stacked.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	jobs   []Job
	names  map[string]struct{}
	locks  map[string]*sync.Mutex
	log    *slog.Logger
	cancel context.CancelFunc
}

// New creates a scheduler. Jobs must be registered before Start().
func New(log *slog.Logger) *Scheduler {
	return &Scheduler{
		names: make(map[string]struct{}),
		locks: make(map[string]*sync.Mutex),
		log:   log.With(sl.Module("scheduler")),
	}
}

// RegisterJob adds a job. Returns an error on a duplicate name.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("duplicate job name %q", name)
	}

	s.names[name] = struct{}{}
	s.locks[name] = &sync.Mutex{}
	s.jobs = append(s.jobs, j)
	return nil
}

// Start begins executing registered jobs.
// Returns an error if any job has an invalid schedule expression.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	s.cron = cron.New(cron.WithParser(parser))

	for _, j := range s.jobs {
		job := j
		lock := s.locks[job.Name()]

		_, err := s.cron.AddFunc(job.Schedule(), func() {
			// Skip the tick when the previous run has not finished.
			if !lock.TryLock() {
				s.log.Warn("job still running, skipping tick", "job", job.Name())
				return
			}
			defer lock.Unlock()

			if err := job.Run(ctx); err != nil {
				s.log.Error("job failed", "job", job.Name(), sl.Err(err))
			}
		})
		if err != nil {
			cancel()
			return fmt.Errorf("invalid schedule for job %q: %w", job.Name(), err)
		}
	}

	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop shuts the scheduler down, waiting for in-flight jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.log.Info("scheduler stopped")
	}
}
