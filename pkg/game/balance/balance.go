package balance

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// guestPrefix marks user ids that are never persisted
const guestPrefix = "guest:"

// IsGuest returns true if the user id belongs to a guest session
func IsGuest(userID string) bool {
	return strings.HasPrefix(userID, guestPrefix)
}

// Store provides chip balances for users. Balances are only touched at hand
// boundaries (join, award, reset); guests are exempt from persistence.
type Store interface {
	// GetOrCreate returns the user's balance, creating it at initial if absent
	GetOrCreate(ctx context.Context, userID string, initial int) (int, error)

	// Set overwrites the user's balance
	Set(ctx context.Context, userID string, chips int) error
}

// RedisStore is a Redis-backed balance store
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a balance store backed by the given client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

var _ Store = (*RedisStore)(nil)

func balanceKey(userID string) string {
	return "holdemtable:balance:" + userID
}

// GetOrCreate returns the user's balance, creating it at initial if absent.
// Guest balances are never read from or written to Redis.
func (s *RedisStore) GetOrCreate(ctx context.Context, userID string, initial int) (int, error) {
	if IsGuest(userID) {
		return initial, nil
	}

	val, err := s.client.Get(ctx, balanceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		if err := s.client.Set(ctx, balanceKey(userID), strconv.Itoa(initial), 0).Err(); err != nil {
			return 0, err
		}

		return initial, nil
	} else if err != nil {
		return 0, err
	}

	return strconv.Atoi(val)
}

// Set overwrites the user's balance. A no-op for guests.
func (s *RedisStore) Set(ctx context.Context, userID string, chips int) error {
	if IsGuest(userID) {
		return nil
	}

	return s.client.Set(ctx, balanceKey(userID), strconv.Itoa(chips), 0).Err()
}

// MemoryStore is an in-memory balance store for tests
type MemoryStore struct {
	mu       sync.Mutex
	balances map[string]int
}

// NewMemoryStore returns an empty in-memory balance store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{balances: make(map[string]int)}
}

var _ Store = (*MemoryStore)(nil)

// GetOrCreate returns the user's balance, creating it at initial if absent
func (s *MemoryStore) GetOrCreate(ctx context.Context, userID string, initial int) (int, error) {
	if IsGuest(userID) {
		return initial, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if chips, ok := s.balances[userID]; ok {
		return chips, nil
	}

	s.balances[userID] = initial
	return initial, nil
}

// Set overwrites the user's balance. A no-op for guests.
func (s *MemoryStore) Set(ctx context.Context, userID string, chips int) error {
	if IsGuest(userID) {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[userID] = chips
	return nil
}
