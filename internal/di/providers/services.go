package providers

import (
	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/auth"
	"github.com/coursedeck/coursedeck-server/internal/service"
	"github.com/coursedeck/coursedeck-server/internal/validation"
)

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	v := do.MustInvoke[*validation.Validator](i)
	journal := do.MustInvoke[*AuditHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, v, journal.Journal, log.Logger.Logger), nil
}

// ProvideTaxonomyService provides the category and subcategory service.
func ProvideTaxonomyService(i do.Injector) (*service.TaxonomyService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	journal := do.MustInvoke[*AuditHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewTaxonomyService(storeHandle.Store, v, journal.Journal, log.Logger.Logger), nil
}

// ProvideCourseService provides the course service.
func ProvideCourseService(i do.Injector) (*service.CourseService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	journal := do.MustInvoke[*AuditHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewCourseService(storeHandle.Store, indexHandle.CourseIndex, v, journal.Journal, log.Logger.Logger), nil
}

// ProvideChapterService provides the chapter service.
func ProvideChapterService(i do.Injector) (*service.ChapterService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	journal := do.MustInvoke[*AuditHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewChapterService(storeHandle.Store, v, journal.Journal, log.Logger.Logger), nil
}

// ProvideEnrollmentService provides the enrollment service.
func ProvideEnrollmentService(i do.Injector) (*service.EnrollmentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	journal := do.MustInvoke[*AuditHandle](i)
	log := do.MustInvoke[*LoggerHandle](i)

	return service.NewEnrollmentService(storeHandle.Store, journal.Journal, log.Logger.Logger), nil
}

// ProvideActivityService provides read access to the audit journal.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	journal := do.MustInvoke[*AuditHandle](i)
	return service.NewActivityService(journal.Journal), nil
}
