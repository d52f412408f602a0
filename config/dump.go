package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Dump 以 YAML 输出生效配置，敏感字段打码
func (c *Config) Dump() ([]byte, error) {
	cp := *c
	cp.Model.FeatureNames = append([]string(nil), c.Model.FeatureNames...)
	if cp.Lookup.RedisPassword != "" {
		cp.Lookup.RedisPassword = redacted
	}
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}
