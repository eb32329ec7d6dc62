package recall

import (
	"context"
	"sync"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pkg/utils"
)

// CandidateSet 把推荐批次与类型批次合并成按 ID 去重的候选集合。
//
//   - 每条批次记录在累加前都要经过 Filters（默认是已看过滤），逐条判断，不做缓存
//   - 首次出现时创建零值候选，之后只累加计数，不覆盖作品字段
//   - Upsert 互斥，可被多个 goroutine 并发调用
type CandidateSet struct {
	Filters []filter.Filter

	mu    sync.Mutex
	items map[int64]*core.Item
	order []int64
}

// NewCandidateSet 创建候选集合；filters 为空时使用已看过滤。
func NewCandidateSet(filters ...filter.Filter) *CandidateSet {
	if len(filters) == 0 {
		filters = []filter.Filter{&filter.WatchedFilter{}}
	}
	return &CandidateSet{
		Filters: filters,
		items:   make(map[int64]*core.Item),
	}
}

// Upsert 获取或创建候选，并在锁内执行 fn 完成累加。
func (s *CandidateSet) Upsert(m core.MediaItem, fn func(it *core.Item)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[m.ID]
	if !ok {
		it = core.NewItem(m)
		s.items[m.ID] = it
		s.order = append(s.order, m.ID)
	}
	if fn != nil {
		fn(it)
	}
}

// AddRecommendations 合并一个推荐批次：每出现一次 score += Direct，DirectCount++。
func (s *CandidateSet) AddRecommendations(ctx context.Context, rctx *core.RecommendContext, b Batch) {
	w := rctx.Weights
	for i := range b.Items {
		m := b.Items[i]
		if s.excluded(ctx, rctx, &m) {
			continue
		}
		s.Upsert(m, func(it *core.Item) {
			it.Score += w.Direct
			it.DirectCount++
			it.PutLabel("recall_source", utils.Label{Value: b.Source, Source: "recall"})
		})
	}
}

// AddGenreBatch 合并一个类型批次：按作品与用户基线的类型/标签重合数累加。
// 重合数与批次所属类型无关；同一作品出现在多个类型批次中会重复累加。
func (s *CandidateSet) AddGenreBatch(ctx context.Context, rctx *core.RecommendContext, b Batch) {
	w := rctx.Weights
	user := rctx.GetUserProfile()
	for i := range b.Items {
		m := b.Items[i]
		if s.excluded(ctx, rctx, &m) {
			continue
		}
		var genreOverlap, tagOverlap int
		if user != nil {
			genreOverlap = utils.IntersectCount(m.Genres, user.AllGenres)
			tagOverlap = utils.IntersectCount(m.Tags, user.AllTags)
		}
		s.Upsert(m, func(it *core.Item) {
			it.Score += w.Genre*float64(genreOverlap) + w.Tag*float64(tagOverlap)
			it.GenreCount += genreOverlap
			it.TagCount += tagOverlap
			it.PutLabel("recall_source", utils.Label{Value: b.Source, Source: "recall"})
		})
	}
}

// Len 返回候选数。
func (s *CandidateSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Get 按 ID 读取候选。
func (s *CandidateSet) Get(id int64) (*core.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	return it, ok
}

// Items 按首次出现顺序返回所有候选。
func (s *CandidateSet) Items() []*core.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

func (s *CandidateSet) excluded(ctx context.Context, rctx *core.RecommendContext, m *core.MediaItem) bool {
	drop, _ := filter.Apply(ctx, rctx, s.Filters, m)
	return drop
}
