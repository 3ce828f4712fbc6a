package interfaces

import "github.com/ternarybob/responsa/internal/models"

// QueryHistoryStorage persists per-turn query records for the history API.
type QueryHistoryStorage interface {
	SaveRecord(record *models.QueryRecord) error
	ListRecords(limit int) ([]*models.QueryRecord, error)
	CountRecords() (int, error)
}

// StorageManager aggregates the storage backends and owns the database
// lifecycle.
type StorageManager interface {
	QueryHistoryStorage() QueryHistoryStorage
	Close() error
}
