package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsa/internal/common"
	"github.com/ternarybob/responsa/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	history interfaces.QueryHistoryStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		history: NewHistoryStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// QueryHistoryStorage returns the query history storage interface
func (m *Manager) QueryHistoryStorage() interfaces.QueryHistoryStorage {
	return m.history
}

// Close runs a final value log GC pass and closes the underlying database
func (m *Manager) Close() error {
	if m.db != nil {
		m.db.RunValueLogGC()
		return m.db.Close()
	}
	return nil
}
