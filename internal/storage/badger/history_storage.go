package badger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/responsa/internal/models"
)

// HistoryStorage persists answered query records in Badger
type HistoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewHistoryStorage creates a new query history storage
func NewHistoryStorage(db *BadgerDB, logger arbor.ILogger) *HistoryStorage {
	return &HistoryStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRecord stores one answered turn. Missing ID and timestamp are
// filled in before the write.
func (s *HistoryStorage) SaveRecord(record *models.QueryRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save query record: %w", err)
	}

	s.logger.Debug().
		Str("id", record.ID).
		Str("route", string(record.Route)).
		Msg("Query record saved")

	return nil
}

// ListRecords returns the most recent records, newest first.
func (s *HistoryStorage) ListRecords(limit int) ([]*models.QueryRecord, error) {
	var records []*models.QueryRecord

	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list query records: %w", err)
	}

	return records, nil
}

// CountRecords returns the total number of stored records.
func (s *HistoryStorage) CountRecords() (int, error) {
	count, err := s.db.Store().Count(&models.QueryRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count query records: %w", err)
	}
	return int(count), nil
}
