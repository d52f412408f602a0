package filter

import (
	"context"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/pkg/dsl"
)

// ExprFilter 用 CEL 表达式决定保留哪些候选：表达式为 true 保留，false 过滤。
//
//	f, err := filter.NewExprFilter("item.score >= 0.05", model.FeatureNames())
type ExprFilter struct {
	program *dsl.Program
}

// NewExprFilter 编译表达式，编译失败返回 INVALID_INPUT 错误
func NewExprFilter(expr string, featureNames []string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr, featureNames)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, err, "filter: invalid expression %q", expr)
	}
	return &ExprFilter{program: p}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式
func (f *ExprFilter) Expr() string {
	return f.program.String()
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.program.Eval(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
