package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"trade-journal-go/internal/models"
)

// FileStore keeps the authoritative trade collection in memory and mirrors
// every mutation to a single JSON document on disk. The whole collection is
// the unit of durability: each write lands in a temp file first and is then
// renamed over the canonical path, so a crash mid-write never corrupts the
// canonical document.
type FileStore struct {
	mu     sync.Mutex
	path   string
	trades []models.Trade
	logger *zap.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads the collection from path. A missing file is an empty
// journal, not an error. Any other load failure degrades to an empty
// collection and is logged as a warning, since it may hide data loss.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	s := &FileStore{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to load trades, starting with an empty journal",
				zap.String("path", path), zap.Error(err))
		}
		return s
	}
	if err := json.Unmarshal(data, &s.trades); err != nil {
		logger.Warn("Failed to parse trades file, starting with an empty journal",
			zap.String("path", path), zap.Error(err))
		s.trades = nil
	}
	return s
}

// List returns the trades in insertion order. Returned records are copies
// with leg mirroring applied.
func (s *FileStore) List() ([]models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Trade, len(s.trades))
	copy(out, s.trades)
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

// Get returns a single trade by id.
func (s *FileStore) Get(id int64) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Trade{}, ErrNotFound
	}
	t := s.trades[i]
	t.Normalize()
	return t, nil
}

// Create validates the input, assigns a fresh id, appends the record and
// persists the collection. On a persistence failure the append is rolled
// back so memory and disk stay consistent.
func (s *FileStore) Create(input models.Trade) (models.Trade, error) {
	if err := input.Validate(); err != nil {
		return models.Trade{}, err
	}
	input.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	input.ID = nextID(s.maxID())
	s.trades = append(s.trades, input)

	if err := s.persist(); err != nil {
		s.trades = s.trades[:len(s.trades)-1]
		s.logger.Error("Failed to save trade", zap.String("op", "create"),
			zap.Int64("id", input.ID), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "create", ID: input.ID, Err: err}
	}
	return input, nil
}

// Update merges the patch over the stored record and persists. The stored
// record is restored on a persistence failure.
func (s *FileStore) Update(id int64, patch map[string]any) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Trade{}, ErrNotFound
	}

	merged, err := models.Merge(s.trades[i], patch, id)
	if err != nil {
		return models.Trade{}, err
	}

	prev := s.trades[i]
	s.trades[i] = merged

	if err := s.persist(); err != nil {
		s.trades[i] = prev
		s.logger.Error("Failed to save trade", zap.String("op", "update"),
			zap.Int64("id", id), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "update", ID: id, Err: err}
	}
	return merged, nil
}

// Delete removes the record and persists, returning the removed record.
func (s *FileStore) Delete(id int64) (models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Trade{}, ErrNotFound
	}

	removed := s.trades[i]
	prev := s.trades
	s.trades = append(append([]models.Trade{}, s.trades[:i]...), s.trades[i+1:]...)

	if err := s.persist(); err != nil {
		s.trades = prev
		s.logger.Error("Failed to save trade", zap.String("op", "delete"),
			zap.Int64("id", id), zap.Error(err))
		return models.Trade{}, &PersistenceError{Op: "delete", ID: id, Err: err}
	}
	removed.Normalize()
	return removed, nil
}

// Close is a no-op for the file store; every mutation is already durable.
func (s *FileStore) Close() error { return nil }

// persist serializes the full collection to a temp file and atomically
// renames it over the canonical path. The rename is the only observably
// atomic step; partial writes land only in the temp file, which is removed
// on failure. Callers must hold s.mu.
func (s *FileStore) persist() error {
	data, err := json.MarshalIndent(s.trades, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode trades: %w", err)
	}
	if s.trades == nil {
		data = []byte("[]")
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace trades file: %w", err)
	}
	return nil
}

func (s *FileStore) indexOf(id int64) int {
	for i := range s.trades {
		if s.trades[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *FileStore) maxID() int64 {
	var max int64
	for i := range s.trades {
		if s.trades[i].ID > max {
			max = s.trades[i].ID
		}
	}
	return max
}
