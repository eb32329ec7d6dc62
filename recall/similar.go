package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/animerec/core"
)

// SimilarSource 拉取与某个喜欢作品关联的推荐作品（推荐批次）。
type SimilarSource struct {
	Client  core.MediaSource
	MediaID int64
}

func (s *SimilarSource) Name() string {
	return "recall.similar:" + strconv.FormatInt(s.MediaID, 10)
}

func (s *SimilarSource) Fetch(ctx context.Context, _ *core.RecommendContext) ([]core.MediaItem, error) {
	return s.Client.Recommendations(ctx, s.MediaID)
}
