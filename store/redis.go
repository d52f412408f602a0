package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/reorder/core"
)

// DefaultRedisKey 是商品名称 Hash 的默认 key
const DefaultRedisKey = "reorder:product_names"

// RedisLookup 是 Redis 实现的 ProductLookup。
// 商品名称保存在一个 Hash 中：field 为十进制 product_id，value 为 product_name。
// 适合商品表较大、或需要在多个实例间共享的部署。
type RedisLookup struct {
	client *redis.Client
	key    string
}

// RedisOptions 是 RedisLookup 的连接参数
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// Key 为空时使用 DefaultRedisKey
	Key string
}

// NewRedisLookup 连接 Redis 并 Ping 一次，连接失败返回 UNAVAILABLE 错误。
func NewRedisLookup(ctx context.Context, opts RedisOptions) (*RedisLookup, error) {
	key := opts.Key
	if key == "" {
		key = DefaultRedisKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, core.WrapDomainError(core.ModuleLookup, core.ErrorCodeUnavailable, err, "lookup: redis %s", opts.Addr)
	}
	return &RedisLookup{client: client, key: key}, nil
}

func (r *RedisLookup) Name() string { return BackendRedis }

// Key 返回 Hash key
func (r *RedisLookup) Key() string { return r.key }

func (r *RedisLookup) BatchGetNames(ctx context.Context, productIDs []int64) (map[int64]string, error) {
	if len(productIDs) == 0 {
		return make(map[int64]string), nil
	}

	fields := make([]string, len(productIDs))
	for i, id := range productIDs {
		fields[i] = strconv.FormatInt(id, 10)
	}
	vals, err := r.client.HMGet(ctx, r.key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget %s: %w", r.key, err)
	}

	result := make(map[int64]string, len(productIDs))
	for i, id := range productIDs {
		if vals[i] == nil {
			continue
		}
		if s, ok := vals[i].(string); ok {
			result[id] = s
		}
	}
	return result, nil
}

// Put 批量写入商品名称，每 batchSize 个 field 一次 HSET，通过 Pipeline 发送。
func (r *RedisLookup) Put(ctx context.Context, names map[int64]string, batchSize int) error {
	if len(names) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	pipe := r.client.Pipeline()
	batch := make([]any, 0, batchSize*2)
	for id, name := range names {
		batch = append(batch, strconv.FormatInt(id, 10), name)
		if len(batch) >= batchSize*2 {
			pipe.HSet(ctx, r.key, batch...)
			batch = make([]any, 0, batchSize*2)
		}
	}
	if len(batch) > 0 {
		pipe.HSet(ctx, r.key, batch...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis hset %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisLookup) Close() error {
	return r.client.Close()
}
