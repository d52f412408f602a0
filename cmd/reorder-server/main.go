// Package main 是复购预测服务的入口。
//
// 启动顺序：
//
//  1. 加载配置（默认值 -> YAML 文件 -> REORDER_ 环境变量）
//  2. 初始化日志
//  3. 加载模型、特征表与商品名称查找；任一失败时服务以不可用状态启动，/health 返回 unhealthy
//  4. 启动 HTTP 服务，SIGINT/SIGTERM 时优雅退出
//
// 用法：
//
//	reorder-server -config config.yaml
//	reorder-server -print-config
//	reorder-server -seed-redis   # 把 lookup.path 中的商品名称写入 Redis 后退出
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rushteam/reorder/config"
	"github.com/rushteam/reorder/logging"
	"github.com/rushteam/reorder/pkg/tabular"
	"github.com/rushteam/reorder/predict"
	"github.com/rushteam/reorder/server"
	"github.com/rushteam/reorder/store"
)

const seedBatchSize = 1000

func main() {
	configPath := flag.String("config", "", "path to YAML config file (overrides CONFIG_PATH)")
	printConfig := flag.Bool("print-config", false, "print the effective config and exit")
	seedRedis := flag.Bool("seed-redis", false, "copy product names from lookup.path into Redis and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	if *printConfig {
		data, err := cfg.Dump()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to dump configuration")
		}
		fmt.Print(string(data))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *seedRedis {
		if err := seed(ctx, cfg); err != nil {
			logging.Fatal().Err(err).Msg("Failed to seed Redis")
		}
		return
	}

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
	logging.Info().Msg("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	artifacts, err := predict.Load(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Artifacts not loaded, serving in unhealthy mode")
	}
	svc := predict.NewService(artifacts)
	defer func() {
		if err := svc.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close artifacts")
		}
	}()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.New(svc),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", srv.Addr).Bool("ready", svc.Ready()).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
		logging.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// seed 读取文件形式的商品名称表并写入 Redis Hash
func seed(ctx context.Context, cfg *config.Config) error {
	if cfg.Lookup.Path == "" {
		return errors.New("lookup.path is required for -seed-redis")
	}

	reader, err := tabular.Open()
	if err != nil {
		return err
	}
	defer reader.Close()

	names, err := store.LoadMemoryLookup(ctx, reader, cfg.Lookup.Path, cfg.Lookup.ProductColumn, cfg.Lookup.NameColumn)
	if err != nil {
		return err
	}

	rl, err := store.NewRedisLookup(ctx, store.RedisOptions{
		Addr:     cfg.Lookup.RedisAddr,
		Password: cfg.Lookup.RedisPassword,
		DB:       cfg.Lookup.RedisDB,
		Key:      cfg.Lookup.RedisKey,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	if err := rl.Put(ctx, names.All(), seedBatchSize); err != nil {
		return err
	}
	logging.Info().
		Int("products", names.Len()).
		Str("addr", cfg.Lookup.RedisAddr).
		Str("key", rl.Key()).
		Msg("Seeded product names into Redis")
	return nil
}
