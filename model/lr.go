package model

import (
	"context"
	"math"
	"os"
	"slices"

	"github.com/goccy/go-json"

	"github.com/rushteam/reorder/core"
)

// LRModel 实现了逻辑回归 (Logistic Regression) 模型，作为 XGBoost 之外的轻量基线。
//
// 预测原理：
// 1. 线性加权求和: z = Bias + sum(Weight_i * Feature_i)
// 2. Sigmoid 变换: P = 1 / (1 + exp(-z))
//
// 模型文件格式：
//
//	{"bias": -1.2, "weights": {"up_orders": 0.3, ...}, "feature_names": ["up_orders", ...]}
//
// feature_names 缺省时按权重名排序。缺失特征（NaN）不参与求和。
type LRModel struct {
	Bias         float64
	Weights      map[string]float64
	featureNames []string
	weights      []float64 // 与 featureNames 对齐
}

func LoadLRModel(path string) (*LRModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Bias         float64            `json:"bias"`
		Weights      map[string]float64 `json:"weights"`
		FeatureNames []string           `json:"feature_names"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, core.WrapDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, err, "model: decode lr json")
	}
	return NewLRModel(raw.Bias, raw.Weights, raw.FeatureNames)
}

// NewLRModel 构造 LR 模型；featureNames 中没有权重的列权重为 0。
func NewLRModel(bias float64, weights map[string]float64, featureNames []string) (*LRModel, error) {
	if len(featureNames) == 0 {
		for k := range weights {
			featureNames = append(featureNames, k)
		}
		slices.Sort(featureNames)
	}
	if len(featureNames) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: lr model has no features")
	}
	aligned := make([]float64, len(featureNames))
	for i, name := range featureNames {
		aligned[i] = weights[name]
	}
	return &LRModel{
		Bias:         bias,
		Weights:      weights,
		featureNames: slices.Clone(featureNames),
		weights:      aligned,
	}, nil
}

func (m *LRModel) Name() string { return TypeLR }

func (m *LRModel) FeatureNames() []string { return m.featureNames }

func (m *LRModel) PredictBatch(ctx context.Context, rows [][]float64) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkRows(m.Name(), rows, len(m.featureNames)); err != nil {
		return nil, err
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		score := m.Bias
		for j, v := range r {
			if math.IsNaN(v) {
				continue
			}
			score += m.weights[j] * v
		}
		out[i] = 1 / (1 + math.Exp(-score))
	}
	return out, nil
}
