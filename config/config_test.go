package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
	// 指向不存在的文件，避免读到工作目录中的 config.yaml
	s.T().Setenv(ConfigPathEnvVar, filepath.Join(s.dir, "absent.yaml"))
}

func (s *ConfigSuite) writeConfig(content string) string {
	path := filepath.Join(s.dir, "config.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *ConfigSuite) TestDefaults() {
	cfg, err := Load("")
	s.Require().NoError(err)

	s.Equal(5000, cfg.Server.Port)
	s.Equal("0.0.0.0:5000", cfg.Server.Addr())
	s.Equal(15*time.Second, cfg.Server.ShutdownTimeout)
	s.Equal("xgboost", cfg.Model.Type)
	s.Equal("instacart_xgb_model.json", cfg.Model.Path)
	s.Equal("feature_store.parquet", cfg.Features.Path)
	s.Equal("expected_reorders_n", cfg.Features.CountColumn)
	s.Equal("file", cfg.Lookup.Backend)
	s.Equal("products_lookup.parquet", cfg.Lookup.Path)
	s.Equal("product_name", cfg.Lookup.NameColumn)
	s.Empty(cfg.Predict.Filter)
	s.Equal("info", cfg.Logging.Level)
}

func (s *ConfigSuite) TestFileOverridesDefaults() {
	path := s.writeConfig(`
server:
  port: 8080
  read_timeout: 3s
model:
  path: /models/model.json
features:
  path: /data/features.csv
predict:
  filter: "item.score >= 0.05"
logging:
  format: console
`)
	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal(8080, cfg.Server.Port)
	s.Equal(3*time.Second, cfg.Server.ReadTimeout)
	s.Equal("/models/model.json", cfg.Model.Path)
	s.Equal("/data/features.csv", cfg.Features.Path)
	s.Equal("item.score >= 0.05", cfg.Predict.Filter)
	s.Equal("console", cfg.Logging.Format)
	// 未出现在文件中的字段保持默认值
	s.Equal("products_lookup.parquet", cfg.Lookup.Path)
}

func (s *ConfigSuite) TestConfigPathEnv() {
	path := s.writeConfig("server:\n  port: 9000\n")
	s.T().Setenv(ConfigPathEnvVar, path)
	cfg, err := Load("")
	s.Require().NoError(err)
	s.Equal(9000, cfg.Server.Port)
}

func (s *ConfigSuite) TestEnvOverridesFile() {
	path := s.writeConfig("server:\n  port: 8080\n")
	s.T().Setenv("REORDER_SERVER_PORT", "7070")
	s.T().Setenv("REORDER_MODEL_TYPE", "rpc")
	s.T().Setenv("REORDER_MODEL_ENDPOINT", "http://scorer:8500/predict")
	s.T().Setenv("REORDER_MODEL_FEATURE_NAMES", "up_orders, up_reorder_rate ,")
	s.T().Setenv("REORDER_MODEL_TIMEOUT", "250ms")
	s.T().Setenv("REORDER_LOOKUP_BACKEND", "redis")
	s.T().Setenv("REORDER_LOOKUP_REDIS_DB", "2")
	s.T().Setenv("REORDER_LOG_LEVEL", "debug")
	s.T().Setenv("REORDER_UNRELATED", "ignored")

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal(7070, cfg.Server.Port)
	s.Equal("rpc", cfg.Model.Type)
	s.Equal([]string{"up_orders", "up_reorder_rate"}, cfg.Model.FeatureNames)
	s.Equal(250*time.Millisecond, cfg.Model.Timeout)
	s.Equal("redis", cfg.Lookup.Backend)
	s.Equal(2, cfg.Lookup.RedisDB)
	s.Equal("debug", cfg.Logging.Level)
}

func (s *ConfigSuite) TestValidation() {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"REORDER_SERVER_PORT": "70000"}},
		{"bad model type", map[string]string{"REORDER_MODEL_TYPE": "onnx"}},
		{"rpc without endpoint", map[string]string{"REORDER_MODEL_TYPE": "rpc", "REORDER_MODEL_FEATURE_NAMES": "a"}},
		{"rpc bad endpoint", map[string]string{"REORDER_MODEL_TYPE": "rpc", "REORDER_MODEL_ENDPOINT": "scorer:80", "REORDER_MODEL_FEATURE_NAMES": "a"}},
		{"rpc without features", map[string]string{"REORDER_MODEL_TYPE": "rpc", "REORDER_MODEL_ENDPOINT": "http://scorer"}},
		{"empty model path", map[string]string{"REORDER_MODEL_PATH": ""}},
		{"empty feature path", map[string]string{"REORDER_FEATURES_PATH": ""}},
		{"bad lookup backend", map[string]string{"REORDER_LOOKUP_BACKEND": "s3"}},
		{"redis without addr", map[string]string{"REORDER_LOOKUP_BACKEND": "redis", "REORDER_LOOKUP_REDIS_ADDR": ""}},
		{"bad log level", map[string]string{"REORDER_LOG_LEVEL": "verbose"}},
		{"bad shutdown timeout", map[string]string{"REORDER_SERVER_SHUTDOWN_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			for k, v := range tt.env {
				s.T().Setenv(k, v)
			}
			_, err := Load("")
			s.Error(err)
		})
	}
}

func (s *ConfigSuite) TestMissingExplicitFile() {
	_, err := Load(filepath.Join(s.dir, "nope.yaml"))
	s.Error(err)
}

func (s *ConfigSuite) TestDump() {
	s.T().Setenv("REORDER_LOOKUP_REDIS_PASSWORD", "secret")
	cfg, err := Load("")
	s.Require().NoError(err)

	out, err := cfg.Dump()
	s.Require().NoError(err)
	s.NotContains(string(out), "secret")

	var back map[string]map[string]any
	s.Require().NoError(yaml.Unmarshal(out, &back))
	s.Equal("instacart_xgb_model.json", back["model"]["path"])
	s.Equal("15s", back["server"]["shutdown_timeout"])
	s.Equal(redacted, back["lookup"]["redis_password"])
	s.Equal("secret", cfg.Lookup.RedisPassword)
}
