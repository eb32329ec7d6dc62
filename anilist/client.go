// Package anilist 实现基于 AniList GraphQL 接口的 core.MediaSource。
package anilist

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
)

// Config 是 AniList 客户端配置。
type Config struct {
	Endpoint string        `koanf:"endpoint" validate:"required,url"`
	Timeout  time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerMinute 为客户端侧限流（AniList 默认 90 次/分钟），<=0 表示不限流
	RatePerMinute int `koanf:"rate_per_minute" validate:"gte=0"`
	// Burst 为限流突发量，默认 RatePerMinute/6
	Burst int `koanf:"burst" validate:"gte=0"`

	RecsPerPage      int `koanf:"recs_per_page" validate:"gte=1,lte=50"`
	GenrePerPage     int `koanf:"genre_per_page" validate:"gte=1,lte=100"`
	TagRankThreshold int `koanf:"tag_rank_threshold" validate:"gte=0,lte=100"`

	// 429 重试：指数退避 base, 2*base, 4*base...，优先使用 Retry-After
	MaxRetries     int           `koanf:"max_retries" validate:"gte=0"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Endpoint:         DefaultEndpoint,
		Timeout:          15 * time.Second,
		RatePerMinute:    90,
		RecsPerPage:      20,
		GenrePerPage:     100,
		TagRankThreshold: 40,
		MaxRetries:       2,
		RetryBaseDelay:   time.Second,
		Breaker:          DefaultBreakerConfig(),
	}
}

// Client 是 AniList GraphQL 客户端。
//
//	client := anilist.NewClient(anilist.DefaultConfig())
//	lists, err := client.CompletedList(ctx, "someone")
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient 创建客户端；零值字段使用 DefaultConfig 中的值。
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RecsPerPage <= 0 {
		cfg.RecsPerPage = def.RecsPerPage
	}
	if cfg.GenrePerPage <= 0 {
		cfg.GenrePerPage = def.GenrePerPage
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerMinute > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(1, cfg.RatePerMinute/6)
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), burst)
	}
	return c
}

// CompletedList 获取用户的列表集合（含评分、类型、标签、封面）。
func (c *Client) CompletedList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return c.listCollection(ctx, completedListQuery, userName)
}

// AllList 获取用户所有状态的列表（只含 ID 与罗马音标题）。
func (c *Client) AllList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return c.listCollection(ctx, allListQuery, userName)
}

func (c *Client) listCollection(ctx context.Context, query, userName string) (*core.ListCollection, error) {
	var data listCollectionData
	if err := c.do(ctx, query, map[string]any{"name": userName}, &data); err != nil {
		return nil, err
	}
	lc := data.toCollection(c.cfg.TagRankThreshold)
	if lc == nil {
		return nil, core.NewDomainError(core.ModuleSource, core.ErrorCodeInvalidInput, "anilist: response missing MediaListCollection")
	}
	return lc, nil
}

// Recommendations 获取与某作品关联的推荐作品，mediaRecommendation 为空的节点被跳过。
func (c *Client) Recommendations(ctx context.Context, mediaID int64) ([]core.MediaItem, error) {
	var data recommendationsData
	vars := map[string]any{"id": mediaID, "perPage": c.cfg.RecsPerPage}
	if err := c.do(ctx, recommendationsQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Media == nil || data.Media.Recommendations == nil {
		return []core.MediaItem{}, nil
	}
	out := make([]core.MediaItem, 0, len(data.Media.Recommendations.Nodes))
	for _, n := range data.Media.Recommendations.Nodes {
		if n.MediaRecommendation == nil {
			continue
		}
		out = append(out, n.MediaRecommendation.toMediaItem(c.cfg.TagRankThreshold))
	}
	return out, nil
}

// ByGenre 获取某类型下按评分、热度排序的作品。
func (c *Client) ByGenre(ctx context.Context, genre string) ([]core.MediaItem, error) {
	var data pageData
	vars := map[string]any{"genre": genre, "perPage": c.cfg.GenrePerPage}
	if err := c.do(ctx, byGenreQuery, vars, &data); err != nil {
		return nil, err
	}
	if data.Page == nil {
		return []core.MediaItem{}, nil
	}
	out := make([]core.MediaItem, 0, len(data.Page.Media))
	for _, m := range data.Page.Media {
		if m == nil {
			continue
		}
		out = append(out, m.toMediaItem(c.cfg.TagRankThreshold))
	}
	return out, nil
}

// do 执行一次 GraphQL 请求并把 data 解码到 out。
//   - 404 / GraphQL status 404 → NOT_FOUND
//   - 429 → 按 Retry-After 或指数退避重试，超过 MaxRetries 后 UNAVAILABLE
//   - 其他非 2xx、网络错误、响应无法解码 → UNAVAILABLE
func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("anilist: encode request: %w", err)
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: rate limiter", err)
			}
		}

		status, header, payload, err := c.post(ctx, body)
		if err != nil {
			return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: request failed", err)
		}

		if status == http.StatusTooManyRequests {
			if attempt >= c.cfg.MaxRetries {
				return core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable,
					fmt.Sprintf("anilist: rate limit exceeded after %d retries", attempt))
			}
			delay := c.backoff(attempt, header.Get("Retry-After"))
			logging.Ctx(ctx).Debug().Int("attempt", attempt+1).Dur("delay", delay).Msg("anilist rate limited, retrying")
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: request canceled", ctx.Err())
			}
		}

		return decodeResponse(status, payload, out)
	}
}

func (c *Client) post(ctx context.Context, body []byte) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, resp.Header, payload, nil
}

func (c *Client) backoff(attempt int, retryAfter string) time.Duration {
	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt))
}

func decodeResponse(status int, payload []byte, out any) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	decodeErr := json.Unmarshal(payload, &resp)

	if status == http.StatusNotFound || hasStatus(resp.Errors, http.StatusNotFound) {
		msg := "anilist: not found"
		if len(resp.Errors) > 0 {
			msg = "anilist: " + joinErrors(resp.Errors)
		}
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeNotFound, msg)
	}
	if status < 200 || status > 299 {
		msg := fmt.Sprintf("anilist: unexpected status %d", status)
		if len(resp.Errors) > 0 {
			msg += ": " + joinErrors(resp.Errors)
		}
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable, msg)
	}
	if decodeErr != nil {
		return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: decode response", decodeErr)
	}
	if len(resp.Errors) > 0 {
		return core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: "+joinErrors(resp.Errors))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: decode data", err)
	}
	return nil
}

func hasStatus(errs []graphQLError, status int) bool {
	for _, e := range errs {
		if e.Status == status {
			return true
		}
	}
	return false
}

var _ core.MediaSource = (*Client)(nil)
