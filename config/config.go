// Package config 定义服务配置，并按 默认值 -> YAML 文件 -> 环境变量 的顺序分层加载（koanf）。
//
// 环境变量统一使用 REORDER_ 前缀，例如：
//
//	REORDER_SERVER_PORT=8080
//	REORDER_MODEL_PATH=/models/instacart_xgb_model.json
//	REORDER_LOOKUP_BACKEND=redis
//	REORDER_PREDICT_FILTER='item.score >= 0.05'
package config

import "time"

// Config 是服务的完整配置
type Config struct {
	Server   ServerConfig   `koanf:"server" yaml:"server"`
	Model    ModelConfig    `koanf:"model" yaml:"model"`
	Features FeaturesConfig `koanf:"features" yaml:"features"`
	Lookup   LookupConfig   `koanf:"lookup" yaml:"lookup"`
	Predict  PredictConfig  `koanf:"predict" yaml:"predict"`
	Logging  LoggingConfig  `koanf:"logging" yaml:"logging"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host            string        `koanf:"host" yaml:"host"`
	Port            int           `koanf:"port" yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	// Type 模型类型：xgboost（默认）、lr、rpc
	Type string `koanf:"type" yaml:"type" validate:"oneof=xgboost lr rpc"`
	// Path 模型文件路径（xgboost / lr）
	Path string `koanf:"path" yaml:"path"`
	// Endpoint 远程打分服务地址（rpc）
	Endpoint string        `koanf:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout" validate:"gte=0"`
	// FeatureNames 特征列顺序；rpc 必填，xgboost 仅在模型文件缺少 feature_names 时使用
	FeatureNames []string `koanf:"feature_names" yaml:"feature_names"`
}

// FeaturesConfig 特征表配置
type FeaturesConfig struct {
	Path          string `koanf:"path" yaml:"path" validate:"required"`
	UserColumn    string `koanf:"user_column" yaml:"user_column" validate:"required"`
	ProductColumn string `koanf:"product_column" yaml:"product_column" validate:"required"`
	CountColumn   string `koanf:"count_column" yaml:"count_column" validate:"required"`
}

// LookupConfig 商品名称查找配置
type LookupConfig struct {
	// Backend 查找后端：file（默认，Parquet/CSV 加载到内存）或 redis
	Backend       string `koanf:"backend" yaml:"backend" validate:"oneof=file redis"`
	Path          string `koanf:"path" yaml:"path"`
	ProductColumn string `koanf:"product_column" yaml:"product_column" validate:"required"`
	NameColumn    string `koanf:"name_column" yaml:"name_column" validate:"required"`
	RedisAddr     string `koanf:"redis_addr" yaml:"redis_addr"`
	RedisPassword string `koanf:"redis_password" yaml:"redis_password"`
	RedisDB       int    `koanf:"redis_db" yaml:"redis_db" validate:"min=0,max=15"`
	RedisKey      string `koanf:"redis_key" yaml:"redis_key"`
}

// PredictConfig 预测流程配置
type PredictConfig struct {
	// Filter 可选的 CEL 候选过滤表达式，为空时不启用
	Filter string `koanf:"filter" yaml:"filter"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller" yaml:"caller"`
}

// Addr 返回监听地址
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
