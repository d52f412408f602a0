package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/reorder/store"
)

// DefaultConfigPaths 按优先级查找配置文件，使用第一个存在的文件。
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reorder/config.yaml",
}

// ConfigPathEnvVar 可覆盖配置文件路径的环境变量
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix 是所有配置环境变量的前缀
const EnvPrefix = "REORDER_"

// sliceConfigPaths 中的配置项可用逗号分隔的环境变量设置
var sliceConfigPaths = []string{
	"model.feature_names",
}

// defaultConfig 返回默认配置；文件路径与离线训练产出的文件名保持一致。
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Model: ModelConfig{
			Type:    "xgboost",
			Path:    "instacart_xgb_model.json",
			Timeout: 5 * time.Second,
		},
		Features: FeaturesConfig{
			Path:          "feature_store.parquet",
			UserColumn:    "user_id",
			ProductColumn: "product_id",
			CountColumn:   "expected_reorders_n",
		},
		Lookup: LookupConfig{
			Backend:       store.BackendFile,
			Path:          "products_lookup.parquet",
			ProductColumn: "product_id",
			NameColumn:    "product_name",
			RedisAddr:     "localhost:6379",
			RedisKey:      store.DefaultRedisKey,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 加载配置：默认值 -> 配置文件 -> 环境变量，然后校验。
// configPath 为空时按 CONFIG_PATH 与 DefaultConfigPaths 查找，找不到文件不是错误。
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath == "" {
		configPath = findConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables, REORDER_MODEL_PATH -> model.path
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings 把去掉前缀并转小写后的环境变量名映射到配置路径。
// 未列出的变量被忽略，避免无关环境变量污染配置。
var envMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",

	"model_type":          "model.type",
	"model_path":          "model.path",
	"model_endpoint":      "model.endpoint",
	"model_timeout":       "model.timeout",
	"model_feature_names": "model.feature_names",

	"features_path":           "features.path",
	"features_user_column":    "features.user_column",
	"features_product_column": "features.product_column",
	"features_count_column":   "features.count_column",

	"lookup_backend":        "lookup.backend",
	"lookup_path":           "lookup.path",
	"lookup_product_column": "lookup.product_column",
	"lookup_name_column":    "lookup.name_column",
	"lookup_redis_addr":     "lookup.redis_addr",
	"lookup_redis_password": "lookup.redis_password",
	"lookup_redis_db":       "lookup.redis_db",
	"lookup_redis_key":      "lookup.redis_key",

	"predict_filter": "predict.filter",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// processSliceFields 把环境变量中逗号分隔的字符串转为切片
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
