package filter

import (
	"context"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/logging"
	"github.com/rushteam/reorder/pipeline"
	"github.com/rushteam/reorder/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该商品就会被过滤掉。
// 过滤器出错时记录日志并保留该商品，不中断请求。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).
					Str("filter", f.Name()).
					Int64("product_id", item.ID).
					Msg("Filter failed, keeping candidate")
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			item.PutLabel("filtered", utils.NewLabel("true", filterReason))
			continue
		}
		out = append(out, item)
	}

	return out, nil
}
