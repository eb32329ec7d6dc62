package appconf

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 是环境变量前缀，如 ANIMEREC_SERVER_PORT → server.port。
const EnvPrefix = "ANIMEREC_"

// ConfigPathEnvVar 可覆盖配置文件路径。
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths 按顺序查找，使用第一个存在的文件。
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"configs/config.yaml",
	"/etc/animerec/config.yaml",
}

// 逗号分隔的环境变量需要拆成列表的配置项
var sliceConfigPaths = []string{
	"server.cors_origins",
	"recommend.blacklist_ids",
}

// 字段名自身含下划线的 section，环境变量无法按下划线推断层级
var envMappings = map[string]string{
	"anilist_breaker_enabled":       "anilist.breaker.enabled",
	"anilist_breaker_max_requests":  "anilist.breaker.max_requests",
	"anilist_breaker_interval":      "anilist.breaker.interval",
	"anilist_breaker_timeout":       "anilist.breaker.timeout",
	"anilist_breaker_min_requests":  "anilist.breaker.min_requests",
	"anilist_breaker_failure_ratio": "anilist.breaker.failure_ratio",
	"recommend_weights_direct":      "recommend.weights.direct",
	"recommend_weights_genre":       "recommend.weights.genre",
	"recommend_weights_tag":         "recommend.weights.tag",
	"recommend_weights_sim":         "recommend.weights.sim",
}

// Load 按 CONFIG_PATH / DefaultConfigPaths 查找配置文件并加载。
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile 加载指定配置文件；path 为空时只使用默认值与环境变量。
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

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
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc 把 ANIMEREC_SERVER_READ_TIMEOUT 转为 server.read_timeout：
// 先查 envMappings，否则第一个下划线视为层级分隔。
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	section, field, ok := strings.Cut(key, "_")
	if !ok || field == "" {
		return ""
	}
	return section + "." + field
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
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
