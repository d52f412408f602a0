package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段取值与字段之间的依赖关系
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}

	validators := []func() error{
		c.validateModel,
		c.validateLookup,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateModel() error {
	switch c.Model.Type {
	case "rpc":
		if c.Model.Endpoint == "" {
			return errors.New("model.endpoint is required when model.type is rpc")
		}
		u, err := url.Parse(c.Model.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("model.endpoint %q must be an http(s) URL", c.Model.Endpoint)
		}
		if len(c.Model.FeatureNames) == 0 {
			return errors.New("model.feature_names is required when model.type is rpc")
		}
	default:
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required when model.type is %s", c.Model.Type)
		}
	}
	return nil
}

func (c *Config) validateLookup() error {
	switch c.Lookup.Backend {
	case "redis":
		if c.Lookup.RedisAddr == "" {
			return errors.New("lookup.redis_addr is required when lookup.backend is redis")
		}
	default:
		if c.Lookup.Path == "" {
			return errors.New("lookup.path is required when lookup.backend is file")
		}
	}
	return nil
}
