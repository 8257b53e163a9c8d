package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/linkforge/linkforge/internal/common"
	"github.com/linkforge/linkforge/internal/interfaces"
)

// Manager bundles the Badger-backed storage implementations.
type Manager struct {
	db       *BadgerDB
	campaign interfaces.CampaignStorage
	job      interfaces.JobStorage
	account  interfaces.AccountStorage
	audit    interfaces.AuditStorage
	logger   arbor.ILogger
}

// NewManager opens the database and wires the storage implementations.
func NewManager(config *common.BadgerConfig, logger arbor.ILogger) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return &Manager{
		db:       db,
		campaign: NewCampaignStorage(db, logger),
		job:      NewJobStorage(db, logger),
		account:  NewAccountStorage(db, logger),
		audit:    NewAuditStorage(db, logger),
		logger:   logger,
	}, nil
}

func (m *Manager) CampaignStorage() interfaces.CampaignStorage { return m.campaign }
func (m *Manager) JobStorage() interfaces.JobStorage           { return m.job }
func (m *Manager) AccountStorage() interfaces.AccountStorage   { return m.account }
func (m *Manager) AuditStorage() interfaces.AuditStorage       { return m.audit }

// Close closes the underlying database.
func (m *Manager) Close() error {
	m.logger.Debug().Msg("Closing storage")
	return m.db.Close()
}
