package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func NewClient(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return rdb, nil
}

func PackageKey(id uint) string {
	return fmt.Sprintf("package:%d", id)
}

// InvalidatePackages drops cached package entries. Callers run it after
// commit and treat a failure as log-and-continue: the database already holds
// the truth.
func InvalidatePackages(ctx context.Context, rdb *redis.Client, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, PackageKey(id))
	}
	return rdb.Del(ctx, keys...).Err()
}
