package anilist

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/pkg/metrics"
)

// BreakerConfig 是熔断配置。
type BreakerConfig struct {
	Enabled     bool          `koanf:"enabled"`
	MaxRequests uint32        `koanf:"max_requests"` // half-open 状态允许的并发请求数
	Interval    time.Duration `koanf:"interval"`     // closed 状态下计数重置周期
	Timeout     time.Duration `koanf:"timeout"`      // open → half-open 的等待时间
	// 请求数达到 MinRequests 且失败率 >= FailureRatio 时熔断
	MinRequests  uint32  `koanf:"min_requests"`
	FailureRatio float64 `koanf:"failure_ratio" validate:"gte=0,lte=1"`
}

// DefaultBreakerConfig 返回默认熔断配置。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:      true,
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}

// BreakerSource 为 core.MediaSource 增加熔断保护。
// NOT_FOUND / INVALID_INPUT 属于请求本身的问题，不计入失败。
type BreakerSource struct {
	next core.MediaSource
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// NewBreakerSource 创建熔断装饰器。
func NewBreakerSource(name string, next core.MediaSource, cfg BreakerConfig) *BreakerSource {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			trip := ratio >= cfg.FailureRatio
			if trip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_ratio", ratio).Msg("opening circuit")
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsNotFound(err) || core.IsInvalidInput(err)
		},
	})

	return &BreakerSource{next: next, cb: cb, name: name}
}

// State 返回当前熔断状态。
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerSource) CompletedList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return execute(b, func() (*core.ListCollection, error) {
		return b.next.CompletedList(ctx, userName)
	})
}

func (b *BreakerSource) AllList(ctx context.Context, userName string) (*core.ListCollection, error) {
	return execute(b, func() (*core.ListCollection, error) {
		return b.next.AllList(ctx, userName)
	})
}

func (b *BreakerSource) Recommendations(ctx context.Context, mediaID int64) ([]core.MediaItem, error) {
	return execute(b, func() ([]core.MediaItem, error) {
		return b.next.Recommendations(ctx, mediaID)
	})
}

func (b *BreakerSource) ByGenre(ctx context.Context, genre string) ([]core.MediaItem, error) {
	return execute(b, func() ([]core.MediaItem, error) {
		return b.next.ByGenre(ctx, genre)
	})
}

func execute[T any](b *BreakerSource, fn func() (T, error)) (T, error) {
	var zero T
	res, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: circuit open", err)
		}
		return zero, err
	}
	v, _ := res.(T)
	return v, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

var _ core.MediaSource = (*BreakerSource)(nil)
