package store

import (
	"context"
	"fmt"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pipeline"
	"github.com/rushteam/reorder/pkg/utils"
)

// LookupNode 为截断后的候选补齐商品名称（左连接语义）：
// 查不到名称的商品保留在结果中，Meta 不写入 product_name。
type LookupNode struct {
	Lookup core.ProductLookup
}

func (n *LookupNode) Name() string        { return "postprocess.lookup" }
func (n *LookupNode) Kind() pipeline.Kind { return pipeline.KindPostProcess }

func (n *LookupNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Lookup == nil || len(items) == 0 {
		return items, nil
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	names, err := n.Lookup.BatchGetNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", n.Lookup.Name(), err)
	}

	for _, it := range items {
		name, ok := names[it.ID]
		if !ok {
			continue
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta[core.MetaKeyProductName] = name
		it.PutLabel("lookup", utils.NewLabel(n.Lookup.Name(), "postprocess"))
	}
	return items, nil
}
