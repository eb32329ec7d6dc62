package recall

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rushteam/animerec/core"
)

// fakeSource 是内存中的 core.MediaSource，记录调用次数与最大并发。
type fakeSource struct {
	recs    map[int64][]core.MediaItem
	byGenre map[string][]core.MediaItem
	fail    map[string]bool // key: "rec:<id>" 或 "genre:<name>"
	delay   time.Duration

	mu       sync.Mutex
	recCalls []int64
	genCalls []string

	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeSource) CompletedList(context.Context, string) (*core.ListCollection, error) {
	return &core.ListCollection{}, nil
}

func (f *fakeSource) AllList(context.Context, string) (*core.ListCollection, error) {
	return &core.ListCollection{}, nil
}

func (f *fakeSource) Recommendations(ctx context.Context, id int64) ([]core.MediaItem, error) {
	f.mu.Lock()
	f.recCalls = append(f.recCalls, id)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail[recKey(id)] {
		return nil, errors.New("upstream error")
	}
	return f.recs[id], nil
}

func (f *fakeSource) ByGenre(ctx context.Context, genre string) ([]core.MediaItem, error) {
	f.mu.Lock()
	f.genCalls = append(f.genCalls, genre)
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.fail["genre:"+genre] {
		return nil, errors.New("upstream error")
	}
	return f.byGenre[genre], nil
}

func (f *fakeSource) wait(ctx context.Context) error {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recKey(id int64) string {
	return "rec:" + strconv.FormatInt(id, 10)
}

func media(id int64, romaji string, genres, tags []string) core.MediaItem {
	return core.MediaItem{ID: id, TitleRomaji: romaji, Genres: genres, Tags: tags}
}

func newContext(liked []core.LikedItem, watched ...core.MediaItem) *core.RecommendContext {
	p := core.NewUserProfile("tester")
	for _, li := range liked {
		p.AddLiked(li)
	}
	for _, w := range watched {
		p.AddWatched(w.ID, w.TitleRomaji)
	}
	return &core.RecommendContext{
		UserName: "tester",
		User:     p,
		Weights:  core.DefaultWeights(),
		MinScore: core.DefaultMinScore,
		TopN:     core.DefaultTopN,
	}
}
