package predict

import (
	"context"
	"sync/atomic"

	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/feature"
	"github.com/rushteam/reorder/filter"
	"github.com/rushteam/reorder/metrics"
	"github.com/rushteam/reorder/pipeline"
	"github.com/rushteam/reorder/rank"
	"github.com/rushteam/reorder/rerank"
	"github.com/rushteam/reorder/store"
)

// Response 是 /predict 的响应体
type Response struct {
	UserID            int64     `json:"user_id"`
	PredictedProducts []Product `json:"predicted_products"`
}

// Product 是一个预测复购的商品；ProductName 未匹配时为 null
type Product struct {
	ProductID   int64   `json:"product_id"`
	ProductName *string `json:"product_name"`
}

type loaded struct {
	artifacts *Artifacts
	pipeline  *pipeline.Pipeline
}

// Service 持有已加载的制品。制品未就绪时 Ready 为 false，Predict 返回 UNAVAILABLE。
// 就绪后只读，可被任意多个请求并发调用。
type Service struct {
	current atomic.Pointer[loaded]
}

// NewService 创建服务；a 为 nil 表示制品加载失败，服务保持不可用。
func NewService(a *Artifacts) *Service {
	s := &Service{}
	if a == nil {
		metrics.SetArtifactsLoaded(false)
		return s
	}
	s.SetArtifacts(a)
	return s
}

// SetArtifacts 安装制品并构建 Pipeline
func (s *Service) SetArtifacts(a *Artifacts) {
	s.current.Store(&loaded{artifacts: a, pipeline: buildPipeline(a)})
	metrics.SetArtifactsLoaded(true)
}

// Ready 报告制品是否全部加载成功
func (s *Service) Ready() bool {
	return s.current.Load() != nil
}

// Close 释放制品资源
func (s *Service) Close() error {
	if l := s.current.Load(); l != nil {
		return l.artifacts.Close()
	}
	return nil
}

// buildPipeline: candidates -> rank -> [filter] -> topN -> lookup
func buildPipeline(a *Artifacts) *pipeline.Pipeline {
	nodes := []pipeline.Node{
		&feature.CandidateNode{Source: a.Features},
		&rank.ModelNode{Model: a.Model},
	}
	if a.Filter != nil {
		nodes = append(nodes, &filter.FilterNode{Filters: []filter.Filter{a.Filter}})
	}
	nodes = append(nodes,
		&rerank.TopNNode{ParamKey: core.ParamExpectedReorders},
		&store.LookupNode{Lookup: a.Lookup},
	)
	return &pipeline.Pipeline{Nodes: nodes}
}

// Predict 返回用户最可能复购的 expected_reorders_n 个商品，按复购概率降序。
//
// 用户不在特征表中或 expected_reorders_n <= 0 时返回空列表；
// 制品未加载返回 core.ErrServiceUnavailable；其余错误为内部错误。
func (s *Service) Predict(ctx context.Context, userID int64) (*Response, error) {
	l := s.current.Load()
	if l == nil {
		metrics.RecordPrediction(metrics.OutcomeUnavailable, 0, 0)
		return nil, core.ErrServiceUnavailable
	}

	rctx := core.NewRecommendContext(userID)
	items, err := l.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		metrics.RecordPrediction(metrics.OutcomeError, 0, 0)
		return nil, err
	}

	resp := &Response{
		UserID:            userID,
		PredictedProducts: make([]Product, 0, len(items)),
	}
	for _, it := range items {
		resp.PredictedProducts = append(resp.PredictedProducts, Product{
			ProductID:   it.ID,
			ProductName: it.ProductName(),
		})
	}

	candidates, _ := rctx.IntParam(core.ParamCandidates)
	outcome := metrics.OutcomeOK
	if len(resp.PredictedProducts) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordPrediction(outcome, candidates, len(resp.PredictedProducts))
	return resp, nil
}
