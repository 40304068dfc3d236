package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store mirrors cart state to a durable backend on every change and
// rehydrates it on read.
type Store interface {
	Load(ctx context.Context, ownerID int) (Cart, error)
	Save(ctx context.Context, ownerID int, c Cart) error
	Delete(ctx context.Context, ownerID int) error
}

const cartTTL = 30 * 24 * time.Hour

type redisStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, logger *zap.Logger) Store {
	return &redisStore{rdb: rdb, logger: logger}
}

// Load returns an empty cart for missing keys and discards corrupted
// state instead of propagating it.
func (s *redisStore) Load(ctx context.Context, ownerID int) (Cart, error) {
	data, err := s.rdb.Get(ctx, cartKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, nil
		}
		return Cart{}, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		s.logger.Warn("Discarding corrupted cart state", zap.Int("owner_id", ownerID), zap.Error(err))
		return Cart{}, nil
	}
	return c, nil
}

func (s *redisStore) Save(ctx context.Context, ownerID int, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	if err := s.rdb.Set(ctx, cartKey(ownerID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, ownerID int) error {
	if err := s.rdb.Del(ctx, cartKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func cartKey(ownerID int) string {
	return fmt.Sprintf("cart:%d", ownerID)
}

// MemoryStore is an in-process Store used by tests and local runs without
// redis.
type MemoryStore struct {
	carts map[int]Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[int]Cart)}
}

func (s *MemoryStore) Load(_ context.Context, ownerID int) (Cart, error) {
	return s.carts[ownerID], nil
}

func (s *MemoryStore) Save(_ context.Context, ownerID int, c Cart) error {
	s.carts[ownerID] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID int) error {
	delete(s.carts, ownerID)
	return nil
}
