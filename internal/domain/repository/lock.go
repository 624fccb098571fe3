package repository

import (
	"context"
	"time"
)

// Locker 分布式互斥锁
type Locker interface {
	// TryLock 尝试获取锁，已被占用时返回 (nil, nil)
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Lock 已持有的锁
type Lock interface {
	// Release 释放锁，仅当锁仍由自己持有时生效
	Release(ctx context.Context) error
}
