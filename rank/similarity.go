package rank

import (
	"context"
	"math"
	"strconv"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/pkg/utils"
)

// SimilarityNode 计算每个候选与全部喜欢作品的平均 Jaccard 相似度（类型∪标签）。
//   - Score += Weights.Sim * sim（使用未取整的 sim）
//   - SimScore 保存取整到 3 位小数的 sim，仅用于观测
//
// 复杂度 O(候选数 × 喜欢数)；喜欢作品的集合只构建一次。
type SimilarityNode struct{}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	user := rctx.GetUserProfile()
	if user == nil || len(items) == 0 {
		return items, nil
	}

	liked := LikedSets(user)
	for _, it := range items {
		if it == nil {
			continue
		}
		sim := Similarity(utils.NewStringSet(it.Genres, it.Tags), liked)
		it.Score += rctx.Weights.Sim * sim
		it.SimScore = Round3(sim)
		it.PutLabel("sim_score", utils.Label{Value: strconv.FormatFloat(it.SimScore, 'f', 3, 64), Source: "rank"})
	}
	return items, nil
}

// LikedSets 为每个喜欢的作品构建类型∪标签集合。
func LikedSets(user *core.UserProfile) []utils.StringSet {
	sets := make([]utils.StringSet, 0, len(user.Liked))
	for _, li := range user.Liked {
		sets = append(sets, utils.NewStringSet(li.Genres, li.Tags))
	}
	return sets
}

// Similarity 返回 candidate 与 liked 中每个集合的 Jaccard 平均值，liked 为空时返回 0。
func Similarity(candidate utils.StringSet, liked []utils.StringSet) float64 {
	if len(liked) == 0 {
		return 0
	}
	var total float64
	for _, b := range liked {
		total += utils.Jaccard(candidate, b)
	}
	return total / float64(len(liked))
}

// Round3 四舍五入到 3 位小数。
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
