// Package scheduler runs periodic maintenance jobs on a gocron scheduler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Task is a unit of periodic work.
type Task func(ctx context.Context) error

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string
	Interval time.Duration
	Runs     int
	LastRun  *time.Time
	LastErr  error
	NextRun  time.Time
}

type job struct {
	info JobInfo
	ref  *gocron.Job
}

// Scheduler owns a gocron scheduler and the jobs registered on it.
// Every job runs in singleton mode: a slow run is never overlapped by the next tick.
type Scheduler struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]*job
	running bool
}

// New creates a stopped scheduler.
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*job),
	}
}

// AddJob registers task to run every interval.
func (s *Scheduler) AddJob(name string, interval time.Duration, task Task) error {
	if interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	ref, err := s.scheduler.Every(interval).Do(func() { s.run(name, task) })
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	s.jobs[name] = &job{
		info: JobInfo{Name: name, Interval: interval},
		ref:  ref,
	}

	s.logger.Debug("job added", "job", name, "interval", interval)
	return nil
}

func (s *Scheduler) run(name string, task Task) {
	start := time.Now()
	err := task(s.ctx)
	duration := time.Since(start)

	s.mu.Lock()
	if j, ok := s.jobs[name]; ok {
		j.info.Runs++
		j.info.LastRun = &start
		j.info.LastErr = err
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("job failed", "job", name, "duration", duration, "error", err)
		return
	}
	s.logger.Debug("job completed", "job", name, "duration", duration)
}

// Start begins running jobs in the background. Jobs fire once immediately.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.scheduler.StartAsync()
	s.running = true
	s.logger.Info("Scheduler started", "jobs", len(s.jobs))
}

// Stop halts the scheduler and cancels the context passed to running tasks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.scheduler.Stop()
	s.running = false
	s.logger.Info("Scheduler stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Job returns a snapshot of the named job.
func (s *Scheduler) Job(name string) (JobInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[name]
	if !ok {
		return JobInfo{}, false
	}
	info := j.info
	if info.LastRun != nil {
		last := *info.LastRun
		info.LastRun = &last
	}
	info.NextRun = j.ref.NextRun()
	return info, true
}
