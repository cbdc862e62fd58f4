package cache

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"cafe_backoffice/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newUnreachableRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "localhost:0",
		Dialer: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return nil, errors.New("redis disabled in tests")
		},
		MaxRetries: -1,
	})
}

func TestCategoryCache_NilClientIsNoop(t *testing.T) {
	cc := NewCategoryCache(nil, time.Minute)
	ctx := context.Background()

	cc.Set(ctx, []models.Category{{ID: 1, Name: "Bebidas"}})
	cc.Invalidate(ctx)

	got, ok := cc.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCategoryCache_RedisFailureIsAMiss(t *testing.T) {
	client := newUnreachableRedisClient()
	defer client.Close()

	cc := NewCategoryCache(client, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NotPanics(t, func() {
		cc.Set(ctx, []models.Category{{ID: 1, Name: "Bebidas"}})
		cc.Invalidate(ctx)
	})
	got, ok := cc.Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCategoryCache_NilReceiver(t *testing.T) {
	var cc *CategoryCache
	_, ok := cc.Get(context.Background())
	assert.False(t, ok)
}
