// Package storage holds the durable trade collection. All mutating
// operations rewrite the full collection, so a Store implementation is the
// single owner of the read-modify-persist critical section.
package storage

import (
	"errors"
	"fmt"
	"time"

	"trade-journal-go/internal/models"
)

// ErrNotFound is returned when no trade carries the requested id.
var ErrNotFound = errors.New("trade not found")

// PersistenceError reports a failed durable write. The in-memory state has
// been rolled back by the time the caller sees it.
type PersistenceError struct {
	Op  string
	ID  int64
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist trades (%s id=%d): %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is the contract shared by the file-backed and sqlite-backed trade
// collections.
type Store interface {
	// List returns all trades in insertion order.
	List() ([]models.Trade, error)

	// Get returns the trade with the given id, or ErrNotFound.
	Get(id int64) (models.Trade, error)

	// Create validates the input, assigns a fresh id and persists the
	// collection before returning the stored record.
	Create(input models.Trade) (models.Trade, error)

	// Update merges the patch over the existing record. The id in the patch
	// body is ignored in favor of the id argument. Last write wins; there is
	// no concurrency token, so concurrent updates silently overwrite.
	Update(id int64, patch map[string]any) (models.Trade, error)

	// Delete removes the record and returns it.
	Delete(id int64) (models.Trade, error)

	// Close releases any underlying resources.
	Close() error
}

// nextID derives a fresh trade id from the wall clock, bumped past the
// current maximum so ids stay unique and monotonic across sub-millisecond
// bursts or clock skew.
func nextID(maxExisting int64) int64 {
	id := time.Now().UnixMilli()
	if id <= maxExisting {
		id = maxExisting + 1
	}
	return id
}
