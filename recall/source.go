package recall

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// Source 表示一次可并发 fan-out 的上游拉取（某作品的相似作品 / 某类型的榜单）。
// 一个请求内每个 Source 只执行一次，返回数据源原始形态，由 CandidateSet 负责过滤与累加。
type Source interface {
	Name() string
	Fetch(ctx context.Context, rctx *core.RecommendContext) ([]core.MediaItem, error)
}
