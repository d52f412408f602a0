// Package store 提供商品名称查找（core.ProductLookup）的实现，以及在 Pipeline
// 末尾为候选补齐商品名称的 LookupNode。
//
// 实现：
//   - MemoryLookup：启动时从 Parquet/CSV 商品表加载到内存（默认）
//   - RedisLookup：从 Redis Hash 读取，field 为 product_id，value 为 product_name
package store

// 查找后端名称
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)
