package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vaultshop/vault-shop/internal/redisx"
)

// DeliverySession is the state carried between "buyer chooses a delivery
// method" and "buyer supplies the details".
type DeliverySession struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
}

// Store keeps delivery sessions keyed by chat id so concurrent buyers never
// see each other's state.
type Store interface {
	Put(ctx context.Context, chatID int64, session DeliverySession) error
	Get(ctx context.Context, chatID int64) (*DeliverySession, error)
	Clear(ctx context.Context, chatID int64) error
}

type RedisStore struct {
	Client *redis.Client
}

func (s *RedisStore) Put(ctx context.Context, chatID int64, session DeliverySession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery session: %w", err)
	}

	key := fmt.Sprintf(redisx.KeyDeliverySession, chatID)
	if err := s.Client.Set(ctx, key, payload, redisx.TTLDeliverySession).Err(); err != nil {
		return fmt.Errorf("failed to store delivery session: %w", err)
	}

	return nil
}

// Get returns (nil, nil) when no session exists or it has expired.
func (s *RedisStore) Get(ctx context.Context, chatID int64) (*DeliverySession, error) {
	key := fmt.Sprintf(redisx.KeyDeliverySession, chatID)

	payload, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read delivery session: %w", err)
	}

	var session DeliverySession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal delivery session: %w", err)
	}

	return &session, nil
}

func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	key := fmt.Sprintf(redisx.KeyDeliverySession, chatID)
	return s.Client.Del(ctx, key).Err()
}
