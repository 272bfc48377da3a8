package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"storefront/internal/cartstore"

	"github.com/redis/go-redis/v9"
)

// CartRedisCache はカートの行と割引（スナップショット）をRedisに置く
type CartRedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewCartRedisCache(client redis.UniversalClient) *CartRedisCache {
	return &CartRedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

func (r *CartRedisCache) Load(ctx context.Context, key string) (cartstore.Snapshot, error) {
	data, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cartstore.Snapshot{}, cartstore.ErrSnapshotNotFound
	}
	if err != nil {
		return cartstore.Snapshot{}, fmt.Errorf("redis get failed: %w", err)
	}

	var snap cartstore.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return cartstore.Snapshot{}, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return snap, nil
}

// 期限切れが一斉に来ないようにTTLを散らす
func (r *CartRedisCache) Save(ctx context.Context, key string, snap cartstore.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(key), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *CartRedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(key string) string {
	return "cart:" + key
}

// Disabled はREDIS_ADDRが無いときに使う。常にミス
type Disabled struct{}

func (Disabled) Load(context.Context, string) (cartstore.Snapshot, error) {
	return cartstore.Snapshot{}, cartstore.ErrSnapshotNotFound
}

func (Disabled) Save(context.Context, string, cartstore.Snapshot) error { return nil }

func (Disabled) Delete(context.Context, string) error { return nil }
