package anilist

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/pkg/metrics"
)

// CachedSource 基于 core.Store 缓存与用户无关的上游响应（相似作品、类型榜单）。
// 用户列表每次都直接读取上游，保证画像是最新的。
// 缓存读写失败只记录日志，回退到上游。
type CachedSource struct {
	next   core.MediaSource
	store  core.Store
	ttl    time.Duration
	prefix string
}

// NewCachedSource 创建缓存装饰器，ttl <= 0 表示不过期。
func NewCachedSource(next core.MediaSource, store core.Store, ttl time.Duration) *CachedSource {
	return &CachedSource{next: next, store: store, ttl: ttl, prefix: "anilist:"}
}

func (c *CachedSource) CompletedList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return c.next.CompletedList(ctx, userName)
}

func (c *CachedSource) AllList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return c.next.AllList(ctx, userName)
}

func (c *CachedSource) Recommendations(ctx context.Context, mediaID int64) ([]core.MediaItem, error) {
	return c.cached(ctx, c.prefix+"recs:"+strconv.FormatInt(mediaID, 10), func() ([]core.MediaItem, error) {
		return c.next.Recommendations(ctx, mediaID)
	})
}

func (c *CachedSource) ByGenre(ctx context.Context, genre string) ([]core.MediaItem, error) {
	return c.cached(ctx, c.prefix+"genre:"+genre, func() ([]core.MediaItem, error) {
		return c.next.ByGenre(ctx, genre)
	})
}

func (c *CachedSource) cached(ctx context.Context, key string, load func() ([]core.MediaItem, error)) ([]core.MediaItem, error) {
	log := logging.Ctx(ctx)

	data, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var items []core.MediaItem
		uerr := json.Unmarshal(data, &items)
		if uerr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return items, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(uerr).Str("key", key).Msg("cache entry corrupt, reloading")
	case core.IsStoreNotFound(err):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("key", key).Str("store", c.store.Name()).Msg("cache read failed")
	}

	items, err := load()
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(items)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return items, nil
	}
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Str("store", c.store.Name()).Msg("cache write failed")
	}
	return items, nil
}

var _ core.MediaSource = (*CachedSource)(nil)
