package recall

import (
	"context"

	"github.com/rushteam/animerec/core"
)

// GenreSource 拉取某类型下排名靠前的作品（类型批次）。
type GenreSource struct {
	Client core.MediaSource
	Genre  string
}

func (s *GenreSource) Name() string {
	return "recall.genre:" + s.Genre
}

func (s *GenreSource) Fetch(ctx context.Context, _ *core.RecommendContext) ([]core.MediaItem, error) {
	return s.Client.ByGenre(ctx, s.Genre)
}
