// Package di provides dependency injection configuration for the CourseDeck server.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/di/providers"
	"github.com/coursedeck/coursedeck-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(version string) *do.RootScope {
	injector := do.New()

	do.ProvideNamedValue(injector, providers.VersionKey, version)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideAuditJournal)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideAuthRateLimiter)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideTaxonomyService)
	do.Provide(injector, providers.ProvideCourseService)
	do.Provide(injector, providers.ProvideChapterService)
	do.Provide(injector, providers.ProvideEnrollmentService)
	do.Provide(injector, providers.ProvideActivityService)

	// Workers
	do.Provide(injector, providers.ProvideScheduler)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the background workers and HTTP server.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.LoggerHandle](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.AuditHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.TaxonomyService](injector)
	_ = do.MustInvoke[*service.CourseService](injector)
	_ = do.MustInvoke[*service.ChapterService](injector)
	_ = do.MustInvoke[*service.EnrollmentService](injector)
	_ = do.MustInvoke[*service.ActivityService](injector)

	// Fill the index before traffic arrives.
	providers.EnsureSearchIndex(ctx, injector)

	// Workers
	_ = do.MustInvoke[*providers.SchedulerHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
