package cartstore

import (
	"context"
	"errors"
)

var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// Persister はスナップショットの保存先（Redisなど）
type Persister interface {
	Load(ctx context.Context, key string) (Snapshot, error)
	Save(ctx context.Context, key string, s Snapshot) error
	Delete(ctx context.Context, key string) error
}

// 保存済みのカートを読み込む。無ければ空のStore
func Load(ctx context.Context, p Persister, key string) (*Store, error) {
	snap, err := p.Load(ctx, key)
	if errors.Is(err, ErrSnapshotNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap), nil
}

func Save(ctx context.Context, p Persister, key string, s *Store) error {
	return p.Save(ctx, key, s.Snapshot())
}
