package feature

import (
	"context"
	"fmt"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pipeline"
	"github.com/rushteam/reorder/pkg/utils"
)

// CandidateNode 是 Pipeline 的第一个节点：取出用户在特征表中的全部行作为候选。
//
//   - 用户不存在：返回空候选，后续节点不做任何事
//   - expected_reorders_n 取第一行的值，写入 rctx.Params；n <= 0 时返回空候选
//   - 第一行的 expected_reorders_n 为 null 视为脏数据，返回 INTERNAL_ERROR
type CandidateNode struct {
	Source core.FeatureSource
}

func (n *CandidateNode) Name() string        { return "recall.feature_table" }
func (n *CandidateNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *CandidateNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	rows, err := n.Source.UserRows(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("user rows: %w", err)
	}
	rctx.SetParam(core.ParamCandidates, len(rows))
	if len(rows) == 0 {
		return []*core.Item{}, nil
	}

	first := rows[0]
	if !first.HasExpectedReorders {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInternalError,
			fmt.Sprintf("feature: %s is null for user %d", core.ParamExpectedReorders, rctx.UserID))
	}
	rctx.SetParam(core.ParamExpectedReorders, int(first.ExpectedReorders))
	// 负数按 0 处理；pandas 的 head(-k) 会返回除末尾 k 行外的全部行，这里不沿用
	if first.ExpectedReorders <= 0 {
		return []*core.Item{}, nil
	}

	items := make([]*core.Item, 0, len(rows))
	for _, row := range rows {
		it := core.NewItem(row.ProductID)
		it.Features = row.Values
		it.Row = row.Row
		it.PutLabel("recall_source", utils.NewLabel(n.Source.Name(), "recall"))
		items = append(items, it)
	}
	return items, nil
}
