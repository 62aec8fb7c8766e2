package scheduler

import (
	"context"
	"time"
)

// Job names.
const (
	JobValueLogGC     = "value-log-gc"
	JobSessionCleanup = "session-cleanup"
	JobAuditPrune     = "audit-prune"
	JobLimiterSweep   = "limiter-sweep"
)

// gcDiscardRatio is the share of stale data a value log file needs before it is rewritten.
const gcDiscardRatio = 0.5

// GarbageCollector reclaims database space.
type GarbageCollector interface {
	RunGC(discardRatio float64) (int, error)
}

// SessionPurger deletes expired sessions.
type SessionPurger interface {
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// AuditPruner deletes audit entries older than a cutoff.
type AuditPruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// LimiterSweeper forgets rate limiter state for idle clients.
type LimiterSweeper interface {
	Sweep(idle time.Duration) int
}

// Database is the store surface touched by maintenance.
type Database interface {
	GarbageCollector
	SessionPurger
}

// MaintenanceDeps are the components maintained by RegisterMaintenance.
// Nil members are skipped.
type MaintenanceDeps struct {
	Store          Database
	Audit          AuditPruner
	Limiters       []LimiterSweeper
	Interval       time.Duration
	AuditRetention time.Duration
}

// RegisterMaintenance adds the housekeeping jobs to s.
func RegisterMaintenance(s *Scheduler, deps MaintenanceDeps) error {
	if deps.Store != nil {
		if err := s.AddJob(JobValueLogGC, deps.Interval, func(context.Context) error {
			rewritten, err := deps.Store.RunGC(gcDiscardRatio)
			if rewritten > 0 {
				s.logger.Info("value log gc", "files_rewritten", rewritten)
			}
			return err
		}); err != nil {
			return err
		}

		if err := s.AddJob(JobSessionCleanup, deps.Interval, func(ctx context.Context) error {
			n, err := deps.Store.DeleteExpiredSessions(ctx)
			if n > 0 {
				s.logger.Info("expired sessions deleted", "count", n)
			}
			return err
		}); err != nil {
			return err
		}
	}

	if deps.Audit != nil {
		if err := s.AddJob(JobAuditPrune, deps.Interval, func(ctx context.Context) error {
			n, err := deps.Audit.Prune(ctx, time.Now().Add(-deps.AuditRetention))
			if n > 0 {
				s.logger.Info("audit entries pruned", "count", n)
			}
			return err
		}); err != nil {
			return err
		}
	}

	if len(deps.Limiters) > 0 {
		if err := s.AddJob(JobLimiterSweep, deps.Interval, func(context.Context) error {
			for _, l := range deps.Limiters {
				l.Sweep(deps.Interval)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}
