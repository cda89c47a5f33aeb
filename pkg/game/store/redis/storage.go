package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"holdemtable-server/pkg/game"
	"holdemtable-server/pkg/game/store"
)

// Storage is a Redis-backed implementation of the store interface. Writes
// use WATCH-based optimistic transactions so the version compare-and-swap is
// atomic even across processes sharing one Redis.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Client exposes the underlying connection so other Redis-backed stores can
// share the pool
func (s *Storage) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ store.Store = (*Storage)(nil)

// FindByID returns the record, or store.ErrRecordNotFound
func (s *Storage) FindByID(ctx context.Context, id string) (*game.Record, error) {
	data, err := s.client.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrRecordNotFound
		}
		return nil, err
	}

	var rec game.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save writes the record with a compare-and-swap on the version counter
func (s *Storage) Save(ctx context.Context, rec *game.Record) error {
	key := gameKey(rec.ID)
	next := *rec
	next.Version = rec.Version + 1

	payload, err := json.Marshal(&next)
	if err != nil {
		return err
	}

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			if rec.Version != 0 {
				return store.ErrVersionConflict
			}
		} else if err != nil {
			return err
		} else {
			var current game.Record
			if err := json.Unmarshal(data, &current); err != nil {
				return err
			}

			if current.Version != rec.Version {
				return store.ErrVersionConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.cfg.GameTTL)
			return nil
		})
		return err
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return store.ErrVersionConflict
		}
		return err
	}

	rec.Version = next.Version
	return nil
}

// ConditionalUpdate atomically loads the record, checks the predicate,
// applies the patch, bumps the version, and saves
func (s *Storage) ConditionalUpdate(ctx context.Context, id string, predicate func(*game.Record) bool, patch func(*game.Record)) (*game.Record, error) {
	key := gameKey(id)

	var updated *game.Record
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return store.ErrRecordNotFound
		} else if err != nil {
			return err
		}

		var rec game.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}

		if !predicate(&rec) {
			return store.ErrConditionFailed
		}

		patch(&rec)
		rec.Version++

		payload, err := json.Marshal(&rec)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.cfg.GameTTL)
			return nil
		})
		if err != nil {
			return err
		}

		updated = &rec
		return nil
	}, key)

	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, store.ErrVersionConflict
		}
		return nil, err
	}

	return updated, nil
}
