package providers

import (
	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/ratelimit"
	"github.com/coursedeck/coursedeck-server/internal/scheduler"
)

// AuthRateLimiter throttles login and registration per client address.
type AuthRateLimiter struct {
	*ratelimit.KeyedRateLimiter
}

// ProvideAuthRateLimiter provides the credential endpoint limiter.
func ProvideAuthRateLimiter(i do.Injector) (*AuthRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &AuthRateLimiter{ratelimit.New(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)}, nil
}

// SchedulerHandle wraps the maintenance scheduler with shutdown capability.
type SchedulerHandle struct {
	*scheduler.Scheduler
}

// Shutdown implements do.Shutdownable.
func (h *SchedulerHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideScheduler registers and starts the housekeeping jobs.
func ProvideScheduler(i do.Injector) (*SchedulerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	journal := do.MustInvoke[*AuditHandle](i)
	limiter := do.MustInvoke[*AuthRateLimiter](i)

	s := scheduler.New(log.Logger.Logger)
	if err := scheduler.RegisterMaintenance(s, scheduler.MaintenanceDeps{
		Store:          storeHandle.Store,
		Audit:          journal.Journal,
		Limiters:       []scheduler.LimiterSweeper{limiter.KeyedRateLimiter},
		Interval:       cfg.Maintenance.GCInterval,
		AuditRetention: cfg.Maintenance.AuditRetention,
	}); err != nil {
		return nil, err
	}

	s.Start()

	return &SchedulerHandle{Scheduler: s}, nil
}
