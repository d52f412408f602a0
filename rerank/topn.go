package rerank

import (
	"context"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个商品。
//
// N 的来源：
//   - ParamKey 非空时从 rctx.Params 读取（例如 expected_reorders_n，由候选节点写入）；
//     参数存在且 <= 0 时返回空列表，参数不存在时回退到 N
//   - 否则使用固定的 N；N <= 0 表示不截断
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &feature.CandidateNode{...},
//	        &rank.ModelNode{...},
//	        &rerank.TopNNode{ParamKey: core.ParamExpectedReorders},
//	    },
//	}
type TopNNode struct {
	N        int
	ParamKey string
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if n.ParamKey != "" && rctx != nil {
		if v, ok := rctx.IntParam(n.ParamKey); ok {
			if v <= 0 {
				return []*core.Item{}, nil
			}
			limit = v
		}
	}

	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
