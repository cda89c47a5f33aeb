package memory

import (
	"context"
	"encoding/json"
	"sync"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/store"
)

// Storage is an in-memory implementation of the store interface, used by
// tests and single-process deployments
type Storage struct {
	mu      sync.Mutex
	records map[string][]byte
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records: make(map[string][]byte),
	}
}

// Ensure Storage implements the interface
var _ store.Store = (*Storage)(nil)

// FindByID returns the record, or store.ErrRecordNotFound
func (s *Storage) FindByID(ctx context.Context, id string) (*game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(id)
}

// Save writes the record with a compare-and-swap on the version counter
func (s *Storage) Save(ctx context.Context, rec *game.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(rec.ID)
	if err == nil {
		if current.Version != rec.Version {
			return store.ErrVersionConflict
		}
	} else if rec.Version != 0 {
		return store.ErrVersionConflict
	}

	rec.Version++
	if err := s.write(rec); err != nil {
		rec.Version--
		return err
	}

	return nil
}

// ConditionalUpdate atomically applies the patch if the predicate accepts the
// current state
func (s *Storage) ConditionalUpdate(ctx context.Context, id string, predicate func(*game.Record) bool, patch func(*game.Record)) (*game.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if !predicate(rec) {
		return nil, store.ErrConditionFailed
	}

	patch(rec)
	rec.Version++
	if err := s.write(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// load must be called with the mutex held. The JSON round-trip yields a deep
// copy so callers never share state with the stored bytes.
func (s *Storage) load(id string) (*game.Record, error) {
	data, ok := s.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}

	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (s *Storage) write(rec *game.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	s.records[rec.ID] = data
	return nil
}
