package recall

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/pkg/metrics"
)

// Fanout 并发执行一组 Source，每个 Source 产出一个 Batch。
// 支持单次拉取超时与并发上限；单个 Source 失败只会降级为空批次，不会中断其他 Source。
type Fanout struct {
	Timeout       time.Duration // 每次拉取的超时时间（0 表示不设超时）
	MaxConcurrent int           // 最大并发数（0 表示无限制）
}

// Run 执行所有 Source 并等待全部完成，返回结果与 sources 一一对应（顺序一致）。
// 只有 ctx 本身被取消时才返回错误。
func (f *Fanout) Run(ctx context.Context, rctx *core.RecommendContext, sources []Source) ([]Batch, error) {
	batches := make([]Batch, len(sources))
	if len(sources) == 0 {
		return batches, nil
	}

	eg := &errgroup.Group{}
	if f.MaxConcurrent > 0 {
		eg.SetLimit(f.MaxConcurrent)
	}

	for i, src := range sources {
		eg.Go(func() error {
			batches[i] = f.fetch(ctx, rctx, src)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

func (f *Fanout) fetch(ctx context.Context, rctx *core.RecommendContext, src Source) Batch {
	name := src.Name()
	kind := sourceKind(name)

	fetchCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	start := time.Now()
	items, err := src.Fetch(fetchCtx, rctx)
	metrics.SourceFetchDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.SourceFetches.WithLabelValues(kind, "error").Inc()
		metrics.BatchesDegraded.WithLabelValues(kind).Inc()
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("source", name).
			Bool("timeout", errors.Is(err, context.DeadlineExceeded)).
			Msg("fetch failed, batch degraded to empty")
		return Degrade(name, err)
	}
	metrics.SourceFetches.WithLabelValues(kind, "ok").Inc()
	return OK(name, items)
}

// sourceKind 去掉 Source 名称中的实例部分，作为指标标签（避免标签基数随作品/类型膨胀）。
func sourceKind(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return name
}
