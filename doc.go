// Package reorder 是复购预测服务：按用户读取特征表中的候选商品，用 XGBoost 模型
// 估计复购概率，取预计算的 expected_reorders_n 个最可能复购的商品并补充商品名称。
//
// 设计要点：
// - Pipeline-first: 一次预测由 Node 串联（Candidates → Rank → Filter → TopN → Lookup）
// - Labels-first: 每个 Node 在 Item 上留下 label，便于排查一次预测的来龙去脉
// - 制品只读: 模型、特征表、商品名称在启动时加载，请求路径上不修改，可并发读取
//
// 入口见 cmd/reorder-server，HTTP 接口见 server 包。
package reorder

import "github.com/rushteam/reorder/pipeline"

// 轻量 facade：便于直接 import 根包使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
