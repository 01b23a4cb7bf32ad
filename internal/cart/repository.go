package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AlexMobiCraft/freesport-storefront/internal/domain"
	apperrors "github.com/AlexMobiCraft/freesport-storefront/pkg/errors"
)

const cartKeyPrefix = "cart:session:"

// Repository persists carts in Redis as JSON blobs keyed by session ID.
// A cart is small and read-modify-written whole, so a single value per
// session beats a hash per line.
type Repository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRepository creates a cart repository. ttl governs how long an idle
// cart survives; every save renews it.
func NewRepository(rdb *redis.Client, ttl time.Duration) *Repository {
	return &Repository{rdb: rdb, ttl: ttl}
}

// Get loads the cart for a session. Returns ErrNotFound when no cart exists.
func (r *Repository) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.rdb.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart", sessionID)
		}
		return nil, fmt.Errorf("get cart from redis: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return &cart, nil
}

// Save writes the cart back and renews its TTL.
func (r *Repository) Save(ctx context.Context, cart *domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.rdb.Set(ctx, cartKeyPrefix+cart.SessionID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save cart to redis: %w", err)
	}
	return nil
}

// Delete removes the cart for a session. Deleting a missing cart is not an
// error.
func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete cart from redis: %w", err)
	}
	return nil
}
