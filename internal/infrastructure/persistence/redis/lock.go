package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"odyscribe-api/internal/domain/repository"
)

// releaseScript 仅当值仍为自己的 token 时删除键
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker 基于 SET NX 的分布式锁
type Locker struct {
	client *Client
}

// NewLocker 创建分布式锁
func NewLocker(client *Client) *Locker {
	return &Locker{client: client}
}

// TryLock 尝试获取锁，被占用时返回 (nil, nil)
func (l *Locker) TryLock(ctx context.Context, name string, ttl time.Duration) (repository.Lock, error) {
	ctx, span := tracer.Start(ctx, "lock.TryLock")
	defer span.End()

	key := key("lock", name)
	span.SetAttributes(attribute.String("lock.key", key))

	token := uuid.NewString()
	ok, err := l.client.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	span.SetAttributes(attribute.Bool("lock.acquired", ok))
	if !ok {
		return nil, nil
	}
	return &lock{client: l.client, key: key, token: token}, nil
}

type lock struct {
	client *Client
	key    string
	token  string
}

// Release 释放锁
func (l *lock) Release(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "lock.Release")
	span.SetAttributes(attribute.String("lock.key", l.key))
	defer span.End()

	if err := releaseScript.Run(ctx, l.client.rdb, []string{l.key}, l.token).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
