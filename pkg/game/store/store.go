package store

import (
	"context"
	"errors"

	"holdemtable-server/pkg/game"
)

// ErrRecordNotFound is returned when no record exists for the id
var ErrRecordNotFound = errors.New("game record not found")

// ErrVersionConflict is returned when a Save loses the compare-and-swap race
var ErrVersionConflict = errors.New("game record version conflict")

// ErrConditionFailed is returned when a ConditionalUpdate predicate is not satisfied
var ErrConditionFailed = errors.New("conditional update predicate not satisfied")

// Store persists game records with optimistic concurrency. Save performs a
// compare-and-swap on the record's monotonic version counter; a stale write
// fails with ErrVersionConflict and the caller must re-read and retry.
type Store interface {
	// FindByID returns the record, or ErrRecordNotFound
	FindByID(ctx context.Context, id string) (*game.Record, error)

	// Save writes the record if its version still matches the stored version,
	// then increments the version (both stored and in-memory). A record with
	// version zero is created. Returns ErrVersionConflict on a stale write.
	Save(ctx context.Context, rec *game.Record) error

	// ConditionalUpdate atomically loads the record, checks the predicate,
	// applies the patch, and saves. Returns the freshly committed record.
	// Fails with ErrConditionFailed if the predicate rejects the current
	// state, or ErrVersionConflict if a concurrent writer won the race.
	ConditionalUpdate(ctx context.Context, id string, predicate func(*game.Record) bool, patch func(*game.Record)) (*game.Record, error)
}
