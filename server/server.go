// Package server 提供 HTTP 接口：
//
//	GET  /health   -> 200 {"status": "ok" | "unhealthy"}
//	POST /predict  -> 200 {"user_id", "predicted_products"} | 400 | 503 | 500
//	GET  /metrics  -> Prometheus 指标
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/reorder/predict"
)

// Predictor 是 HTTP 层依赖的预测服务
type Predictor interface {
	Ready() bool
	Predict(ctx context.Context, userID int64) (*predict.Response, error)
}

// Server 持有路由与预测服务
type Server struct {
	predictor Predictor
	router    chi.Router
}

// New 创建 Server 并注册路由
func New(p Predictor) *Server {
	s := &Server{predictor: p}

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	// Metrics 在 Recoverer 之外，panic 转成的 500 也会计数
	r.Use(Metrics)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/predict", s.handlePredict)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
