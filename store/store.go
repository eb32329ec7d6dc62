// Package store 提供 core.Store 的实现（接口定义在 core 包）。
//
//	var s core.Store = store.NewMemoryStore()
//	s, err := store.New(store.Config{Backend: "redis", Addr: "localhost:6379"})
package store

import (
	"fmt"
	"strings"

	"github.com/rushteam/animerec/core"
)

// 后端名称
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config 是存储后端配置。
type Config struct {
	Backend  string `koanf:"backend" validate:"omitempty,oneof=none memory redis"`
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// New 按配置创建存储；Backend 为空或 "none" 时返回 (nil, nil)。
func New(cfg Config) (core.Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendNone:
		return nil, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		rs, err := NewRedisStoreWithOptions(RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			fmt.Sprintf("store: unsupported backend %q", cfg.Backend))
	}
}
