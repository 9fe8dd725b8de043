package storage

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"trade-journal-go/internal/models"
)

// SQLiteStore keeps the trade collection in a sqlite database through gorm.
// It honors the same contract as FileStore: ids are assigned by the store,
// updates are merge-patch and last-write-wins, mutations are serialized.
type SQLiteStore struct {
	mu     sync.Mutex
	db     *gorm.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at dsn and migrates the trades table.
func NewSQLiteStore(dsn string, log *zap.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.Trade{}); err != nil {
		return nil, fmt.Errorf("failed to migrate trades table: %w", err)
	}
	return &SQLiteStore{db: db, logger: log}, nil
}

// List returns all trades ordered by id, which matches insertion order for
// store-assigned ids.
func (s *SQLiteStore) List() ([]models.Trade, error) {
	var trades []models.Trade
	if err := s.db.Order("id").Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	for i := range trades {
		trades[i].Normalize()
	}
	return trades, nil
}

// Get returns a single trade by id.
func (s *SQLiteStore) Get(id int64) (models.Trade, error) {
	var t models.Trade
	if err := s.db.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Trade{}, ErrNotFound
		}
		return models.Trade{}, fmt.Errorf("failed to load trade %d: %w", id, err)
	}
	t.Normalize()
	return t, nil
}

// Create validates the input, assigns a fresh id and inserts the record.
func (s *SQLiteStore) Create(input models.Trade) (models.Trade, error) {
	if err := input.Validate(); err != nil {
		return models.Trade{}, err
	}
	input.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	if err := s.db.Model(&models.Trade{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return models.Trade{}, &PersistenceError{Op: "create", Err: err}
	}
	input.ID = nextID(maxID)

	if err := s.db.Create(&input).Error; err != nil {
		s.logger.Error("Failed to save trade", zap.String("op", "create"),
			zap.Int64("id", input.ID), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "create", ID: input.ID, Err: err}
	}
	return input, nil
}

// Update merges the patch over the stored record and saves the full row.
func (s *SQLiteStore) Update(id int64, patch map[string]any) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Get(id)
	if err != nil {
		return models.Trade{}, err
	}

	merged, err := models.Merge(existing, patch, id)
	if err != nil {
		return models.Trade{}, err
	}

	if err := s.db.Save(&merged).Error; err != nil {
		s.logger.Error("Failed to save trade", zap.String("op", "update"),
			zap.Int64("id", id), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "update", ID: id, Err: err}
	}
	return merged, nil
}

// Delete removes the record and returns it.
func (s *SQLiteStore) Delete(id int64) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.Get(id)
	if err != nil {
		return models.Trade{}, err
	}

	if err := s.db.Delete(&models.Trade{}, "id = ?", id).Error; err != nil {
		s.logger.Error("Failed to save trade", zap.String("op", "delete"),
			zap.Int64("id", id), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "delete", ID: id, Err: err}
	}
	return removed, nil
}

// Close closes the underlying sqlite connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
