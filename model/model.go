package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rushteam/reorder/core"
)

// RankModel 是排序阶段的最小抽象：按固定特征列顺序输入一批特征向量，
// 输出同样长度的复购概率。实现必须是只读的，可被多个请求并发调用。
//
// 特征值中的 NaN 表示缺失，由各实现自行处理（XGBoost 走 default_left）。
type RankModel interface {
	Name() string

	// FeatureNames 返回模型期望的特征列顺序
	FeatureNames() []string

	// PredictBatch 批量打分，rows[i] 的长度必须等于 len(FeatureNames())
	PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error)
}

// 支持的模型类型
const (
	TypeXGBoost = "xgboost"
	TypeLR      = "lr"
	TypeRPC     = "rpc"
)

// Options 描述如何加载一个 RankModel。
type Options struct {
	Type string
	// Path 本地模型文件路径（xgboost / lr）
	Path string
	// Endpoint 远程打分服务地址（rpc）
	Endpoint string
	Timeout  time.Duration
	// FeatureNames 模型文件未携带特征名时使用；rpc 必填
	FeatureNames []string
}

// Load 按类型加载模型。加载失败返回的错误即服务不健康的原因。
func Load(_ context.Context, opts Options) (RankModel, error) {
	switch strings.ToLower(opts.Type) {
	case "", TypeXGBoost:
		m, err := LoadXGBoostModel(opts.Path)
		if err != nil {
			return nil, err
		}
		if err := m.applyFeatureNames(opts.FeatureNames); err != nil {
			return nil, err
		}
		return m, nil
	case TypeLR:
		return LoadLRModel(opts.Path)
	case TypeRPC:
		if len(opts.FeatureNames) == 0 {
			return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput,
				"model: rpc model requires feature_names")
		}
		return NewRPCModel(TypeRPC, opts.Endpoint, opts.Timeout, opts.FeatureNames), nil
	default:
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotSupported,
			fmt.Sprintf("model: unsupported type %q", opts.Type))
	}
}

func checkRows(name string, rows [][]float64, width int) error {
	for i, r := range rows {
		if len(r) != width {
			return core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
				fmt.Sprintf("model %s: row %d has %d features, expected %d", name, i, len(r), width))
		}
	}
	return nil
}
