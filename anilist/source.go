package anilist

import (
	"time"

	"github.com/rushteam/animerec/core"
)

// NewSource 组装完整的数据源：Client → 熔断（可选）→ 响应缓存（cache 非空时）。
func NewSource(cfg Config, cache core.Store, cacheTTL time.Duration) core.MediaSource {
	var src core.MediaSource = NewClient(cfg)
	if cfg.Breaker.Enabled {
		src = NewBreakerSource("anilist-api", src, cfg.Breaker)
	}
	if cache != nil {
		src = NewCachedSource(src, cache, cacheTTL)
	}
	return src
}
