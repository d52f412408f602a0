package pipeline

import (
	"context"

	"github.com/rushteam/reorder/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindRecall      Kind = "recall"      // 候选阶段：从特征表取出用户的候选商品
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不符合约束的候选
	KindRank        Kind = "rank"        // 排序阶段：模型打分并排序
	KindReRank      Kind = "rerank"      // 重排阶段：按用户预计算数量截断
	KindPostProcess Kind = "postprocess" // 后处理阶段：补充商品名称等展示信息
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 items -> 输出 items”的形态，方便候选生成、过滤截断、重排等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
