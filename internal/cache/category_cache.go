package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafe_backoffice/internal/models"
	"cafe_backoffice/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// CategoryListKey holds the serialized category list.
const CategoryListKey = "categorias:list"

// CategoryCache keeps the category list in Redis. The database stays the source
// of truth: a miss or a Redis failure simply falls through to it.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache returns a cache backed by client. A nil client yields a cache
// that never hits and never fails.
func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	return &CategoryCache{client: client, ttl: ttl}
}

// NewRedisClient builds a client and checks connectivity.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Get returns the cached list and whether it was found.
func (cc *CategoryCache) Get(ctx context.Context) ([]models.Category, bool) {
	if cc == nil || cc.client == nil {
		return nil, false
	}
	raw, err := cc.client.Get(ctx, CategoryListKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			utils.LogWarn(err, "Category cache read failed")
		}
		return nil, false
	}
	var categories []models.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		utils.LogWarn(err, "Failed to unmarshal cached categories")
		return nil, false
	}
	return categories, true
}

// Set stores the list. Failures are logged and otherwise ignored.
func (cc *CategoryCache) Set(ctx context.Context, categories []models.Category) {
	if cc == nil || cc.client == nil {
		return
	}
	payload, err := json.Marshal(categories)
	if err != nil {
		utils.LogWarn(err, "Failed to marshal categories for cache")
		return
	}
	if err := cc.client.Set(ctx, CategoryListKey, payload, cc.ttl).Err(); err != nil {
		utils.LogWarn(err, "Failed to cache categories")
	}
}

// Invalidate drops the cached list after a category write.
func (cc *CategoryCache) Invalidate(ctx context.Context) {
	if cc == nil || cc.client == nil {
		return
	}
	if err := cc.client.Del(ctx, CategoryListKey).Err(); err != nil {
		utils.LogWarn(err, "Failed to invalidate category cache")
	}
}
