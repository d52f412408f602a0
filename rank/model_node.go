package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/model"
	"github.com/rushteam/reorder/pipeline"
	"github.com/rushteam/reorder/pkg/utils"
)

// ModelNode 使用 RankModel 对全部候选批量打分。
// - 写入 labels：rank_model
// - 更新 item.Score 并按分数降序稳定排序（同分保持特征表原始行序）
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	rows := make([][]float64, len(items))
	for i, it := range items {
		rows[i] = it.Features
	}
	scores, err := n.Model.PredictBatch(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(scores) != len(items) {
		return nil, fmt.Errorf("model %s returned %d scores for %d items", n.Model.Name(), len(scores), len(items))
	}

	for i, it := range items {
		it.Score = scores[i]
		it.PutLabel("rank_model", utils.NewLabel(n.Model.Name(), "rank"))
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	return items, nil
}
