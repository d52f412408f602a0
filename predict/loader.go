// Package predict 组装预测服务：启动时加载模型、特征表与商品查找表，
// 把它们串成 Pipeline，对外提供 Predict 与健康状态。
package predict

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/reorder/config"
	"github.com/rushteam/reorder/core"
	"github.com/rushteam/reorder/feature"
	"github.com/rushteam/reorder/filter"
	"github.com/rushteam/reorder/logging"
	"github.com/rushteam/reorder/metrics"
	"github.com/rushteam/reorder/model"
	"github.com/rushteam/reorder/pkg/tabular"
	"github.com/rushteam/reorder/store"
)

// 制品名称（日志与监控标签）
const (
	ArtifactModel    = "model"
	ArtifactFeatures = "features"
	ArtifactLookup   = "lookup"
	ArtifactFilter   = "filter"
)

// Artifacts 是启动时加载、此后只读的全部依赖
type Artifacts struct {
	Model    model.RankModel
	Features core.FeatureSource
	Lookup   core.ProductLookup
	// Filter 可选
	Filter filter.Filter
}

// Close 释放查找后端等资源
func (a *Artifacts) Close() error {
	if a == nil || a.Lookup == nil {
		return nil
	}
	return a.Lookup.Close()
}

// Load 按配置加载全部制品。
//
// 商品查找表与 模型→特征表 两条链路并发加载；特征表依赖模型的特征列顺序，
// 因此排在模型之后。任一失败即返回错误，不重试。
func Load(ctx context.Context, cfg *config.Config) (*Artifacts, error) {
	reader, err := tabular.Open()
	if err != nil {
		return nil, fmt.Errorf("open tabular reader: %w", err)
	}
	defer reader.Close()

	a := &Artifacts{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := track(ArtifactModel, cfg.Model.Path, func() (model.RankModel, error) {
			return model.Load(gctx, model.Options{
				Type:         cfg.Model.Type,
				Path:         cfg.Model.Path,
				Endpoint:     cfg.Model.Endpoint,
				Timeout:      cfg.Model.Timeout,
				FeatureNames: cfg.Model.FeatureNames,
			})
		})
		if err != nil {
			return err
		}
		a.Model = m
		logging.Info().Str("type", m.Name()).Int("features", len(m.FeatureNames())).Msg("Model ready")

		tbl, err := track(ArtifactFeatures, cfg.Features.Path, func() (*feature.Table, error) {
			return feature.LoadTable(gctx, reader, cfg.Features.Path, feature.Columns{
				User:             cfg.Features.UserColumn,
				Product:          cfg.Features.ProductColumn,
				ExpectedReorders: cfg.Features.CountColumn,
			}, m.FeatureNames())
		})
		if err != nil {
			return err
		}
		metrics.ArtifactRows.WithLabelValues(ArtifactFeatures).Set(float64(tbl.Len()))
		logging.Info().Int("rows", tbl.Len()).Int("users", tbl.Users()).Msg("Feature table ready")
		a.Features = tbl

		if cfg.Predict.Filter == "" {
			return nil
		}
		f, err := track(ArtifactFilter, cfg.Predict.Filter, func() (*filter.ExprFilter, error) {
			return filter.NewExprFilter(cfg.Predict.Filter, m.FeatureNames())
		})
		if err != nil {
			return err
		}
		a.Filter = f
		return nil
	})

	g.Go(func() error {
		l, err := track(ArtifactLookup, lookupSource(cfg), func() (core.ProductLookup, error) {
			return loadLookup(gctx, reader, cfg)
		})
		if err != nil {
			return err
		}
		a.Lookup = l
		if ml, ok := l.(*store.MemoryLookup); ok {
			metrics.ArtifactRows.WithLabelValues(ArtifactLookup).Set(float64(ml.Len()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func loadLookup(ctx context.Context, reader *tabular.Reader, cfg *config.Config) (core.ProductLookup, error) {
	switch cfg.Lookup.Backend {
	case store.BackendRedis:
		return store.NewRedisLookup(ctx, store.RedisOptions{
			Addr:     cfg.Lookup.RedisAddr,
			Password: cfg.Lookup.RedisPassword,
			DB:       cfg.Lookup.RedisDB,
			Key:      cfg.Lookup.RedisKey,
		})
	default:
		return store.LoadMemoryLookup(ctx, reader, cfg.Lookup.Path, cfg.Lookup.ProductColumn, cfg.Lookup.NameColumn)
	}
}

func lookupSource(cfg *config.Config) string {
	if cfg.Lookup.Backend == store.BackendRedis {
		return cfg.Lookup.RedisAddr + "/" + cfg.Lookup.RedisKey
	}
	return cfg.Lookup.Path
}

// track 记录单个制品的加载日志与耗时
func track[T any](artifact, source string, load func() (T, error)) (T, error) {
	logging.Info().Str("artifact", artifact).Str("source", source).Msg("Loading artifact")
	start := time.Now()
	v, err := load()
	took := time.Since(start)
	metrics.RecordArtifactLoad(artifact, took, err)
	if err != nil {
		logging.Error().Err(err).Str("artifact", artifact).Str("source", source).Msg("Failed to load artifact")
		var zero T
		return zero, fmt.Errorf("load %s: %w", artifact, err)
	}
	logging.Info().Str("artifact", artifact).Dur("took", took).Msg("Artifact loaded")
	return v, nil
}
