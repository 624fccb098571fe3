package redis

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"odyscribe-api/pkg/logger"
)

var cacheTracer = otel.Tracer("redis.cache")

// Cache 二进制读穿缓存，用于朗读音频
type Cache struct {
	client *Client
	group  singleflight.Group
}

// NewCache 创建缓存服务
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// GetOrLoad Read-Through 缓存，使用 singleflight 合并同一键的并发加载
// 返回值 hit 表示是否命中缓存。缓存读写失败不影响加载结果。
// 加载在脱离调用方取消信号的 ctx 中进行，调用方取消只结束自己的等待。
func (c *Cache) GetOrLoad(ctx context.Context, k string, ttl time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	ctx, span := cacheTracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", k)))
	defer span.End()

	fullKey := key("cache", k)
	val, err := c.client.rdb.Get(ctx, fullKey).Bytes()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, true, nil
	}
	if !IsNil(err) {
		// 缓存不可用时直接回源
		span.RecordError(err)
		logger.Warn(ctx, "cache read failed, loading from source", "key", k, "error", err.Error())
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(fullKey, func() (interface{}, error) {
		data, err := loader(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.client.rdb.Set(loadCtx, fullKey, data, ttl).Err(); err != nil {
			logger.Warn(loadCtx, "cache write failed", "key", k, "error", err.Error())
		}
		return data, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
	span.SetAttributes(attribute.Bool("cache.shared", res.Shared))

	if res.Err != nil {
		span.RecordError(res.Err)
		return nil, false, res.Err
	}
	return res.Val.([]byte), false, nil
}
