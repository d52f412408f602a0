package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/metrics"
)

// Pipeline 把一次预测拆成可组合的 Node 链：
// candidates -> rank -> filter -> topN -> lookup。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行各 Node。任一 Node 出错立即返回，错误中带上 Node 名称。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		metrics.RecordNode(node.Name(), string(node.Kind()), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
