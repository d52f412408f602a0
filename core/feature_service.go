package core

import "context"

// FeatureSource 是特征表的领域接口。
//
// 特征表以 (user_id, product_id) 为键，每行携带模型所需的全部特征以及
// 用户级预计算字段 expected_reorders_n。实现必须是只读的，可被并发调用。
//
// 实现：
//   - feature.Table：启动时从 Parquet/CSV 加载的内存表
type FeatureSource interface {
	// Name 返回特征源名称（用于日志/监控）
	Name() string

	// FeatureNames 返回 Values 的列顺序（与模型特征列一致）
	FeatureNames() []string

	// UserRows 返回某用户的全部候选行，按原始文件顺序；用户不存在时返回空切片。
	UserRows(ctx context.Context, userID int64) ([]FeatureRow, error)
}

// FeatureRow 是特征表中的一行。
type FeatureRow struct {
	// Row 是原始文件中的行号（从 0 开始）
	Row       int
	UserID    int64
	ProductID int64

	// ExpectedReorders 即 expected_reorders_n；源数据为 null 时 HasExpectedReorders 为 false
	ExpectedReorders    int64
	HasExpectedReorders bool

	// Values 按 FeatureNames 顺序排列，null 值为 NaN
	Values []float64
}
