package providers

import (
	"github.com/samber/do/v2"

	"github.com/coursedeck/coursedeck-server/internal/audit"
	"github.com/coursedeck/coursedeck-server/internal/config"
	"github.com/coursedeck/coursedeck-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	db, err := store.New(cfg.Data.DBPath(), log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DBPath())

	return &StoreHandle{Store: db}, nil
}

// AuditHandle wraps the audit journal with shutdown capability.
type AuditHandle struct {
	*audit.Journal
}

// Shutdown implements do.Shutdownable.
func (h *AuditHandle) Shutdown() error {
	return h.Close()
}

// ProvideAuditJournal provides the SQLite audit journal.
func ProvideAuditJournal(i do.Injector) (*AuditHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	journal, err := audit.Open(cfg.Data.AuditPath(), log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Audit journal opened", "path", cfg.Data.AuditPath())

	return &AuditHandle{Journal: journal}, nil
}
