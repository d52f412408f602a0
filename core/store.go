package core

import "context"

// ProductLookup 是商品名称查找的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 只读：数据在启动时加载，请求路径上不修改
//
// 实现：
//   - store.MemoryLookup：从 Parquet/CSV 商品表加载到内存（默认）
//   - store.RedisLookup：从 Redis Hash 读取
type ProductLookup interface {
	// Name 返回查找后端名称（用于日志/监控）
	Name() string

	// BatchGetNames 批量查询商品名称。
	// 未找到的 product_id 不出现在返回的 map 中（由调用方按 null 处理），不视为错误。
	BatchGetNames(ctx context.Context, productIDs []int64) (map[int64]string, error)

	// Close 释放资源
	Close() error
}

