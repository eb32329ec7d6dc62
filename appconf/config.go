// Package appconf 加载服务配置：结构体默认值 → YAML 文件 → 环境变量（ANIMEREC_ 前缀），后者覆盖前者。
package appconf

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/animerec/anilist"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/recommend"
	"github.com/rushteam/animerec/server"
	"github.com/rushteam/animerec/store"
)

// Config 是服务整体配置。
type Config struct {
	Server    server.Config    `koanf:"server"`
	AniList   anilist.Config   `koanf:"anilist"`
	Recommend recommend.Config `koanf:"recommend"`
	Cache     CacheConfig      `koanf:"cache"`
	Logging   logging.Config   `koanf:"logging"`
}

// CacheConfig 是上游响应缓存配置，Backend 为 none 时不缓存。
type CacheConfig struct {
	Backend  string        `koanf:"backend" validate:"oneof=none memory redis"`
	Addr     string        `koanf:"addr" validate:"required_if=Backend redis"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Prefix   string        `koanf:"prefix"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

// StoreConfig 转换为 store.New 的参数。
func (c CacheConfig) StoreConfig() store.Config {
	return store.Config{
		Backend:  c.Backend,
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
		Prefix:   c.Prefix,
	}
}

func defaultConfig() *Config {
	return &Config{
		Server:    server.DefaultConfig(),
		AniList:   anilist.DefaultConfig(),
		Recommend: recommend.DefaultConfig(),
		Cache: CacheConfig{
			Backend: store.BackendNone,
			Prefix:  "animerec:",
			TTL:     time.Hour,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate 校验各段配置的取值范围。
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid config Config.Logging.Format: %q (want json or console)", c.Logging.Format)
	}
	return nil
}
