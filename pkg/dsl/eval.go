package dsl

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/reorder/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译好的候选过滤表达式，使用 CEL (Common Expression Language)。
// 编译一次，可被多个请求并发求值。
//
// 可用变量：
//   - item.id（int）、item.score（double）、item.row（int）
//   - item.features：按特征名访问，缺失值为 null，例如 item.features.up_orders > 2.0
//   - label：Label 的 value，例如 label.rank_model == "xgboost"
//   - rctx.user_id、rctx.params，例如 rctx.params.expected_reorders_n
//
// 示例：
//   - `item.score >= 0.1`
//   - `item.features.up_reorder_rate != null && item.features.up_reorder_rate > 0.2`
//   - `!(item.id in [24852, 13176])`
type Program struct {
	expr         string
	featureNames []string
	prg          cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
// featureNames 用于把 Item.Features 映射为 item.features。
func Compile(expr string, featureNames []string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return bool, got %s", out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, featureNames: featureNames, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Eval 对单个候选求值
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(p.buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (p *Program) buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	features := make(map[string]any, len(p.featureNames))
	for i, name := range p.featureNames {
		if i >= len(item.Features) {
			break
		}
		if v := item.Features[i]; !math.IsNaN(v) {
			features[name] = v
		} else {
			features[name] = nil
		}
	}

	labels := make(map[string]string, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	params := map[string]any{}
	var userID int64
	if rctx != nil {
		userID = rctx.UserID
		for k, v := range rctx.Params {
			params[k] = v
		}
	}

	return map[string]any{
		"item": map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"row":      int64(item.Row),
			"features": features,
		},
		"label": labels,
		"rctx": map[string]any{
			"user_id": userID,
			"params":  params,
		},
	}
}
