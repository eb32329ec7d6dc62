package core

import "github.com/rushteam/animerec/pkg/utils"

// CoverImage 是封面图引用，链路中只透传，不做解析。
type CoverImage struct {
	ExtraLarge string `json:"extraLarge"`
}

// MediaItem 是数据源返回的作品形态（推荐批次、类型榜单、用户列表共用）。
//   - Tags 已由数据源按相关度阈值预先过滤
//   - TitleRomaji / TitleEnglish 都可能为空
type MediaItem struct {
	ID           int64       `json:"id"`
	TitleRomaji  string      `json:"title_romaji"`
	TitleEnglish *string     `json:"title_english"`
	Genres       []string    `json:"genres"`
	Tags         []string    `json:"tags"`
	CoverImage   *CoverImage `json:"coverImage"`
}

// Item 是推荐链路中的候选记录：作品本身 + 可累加的打分计数。
//
// 同一个 ID 在一次请求中只存在一个 Item（去重不变量）；
// MediaItem 字段取自首次出现的批次，之后不再覆盖。
type Item struct {
	MediaItem

	Score       float64 `json:"score"`
	DirectCount int     `json:"direct_count"`
	GenreCount  int     `json:"genre_count"`
	TagCount    int     `json:"tag_count"`
	SimScore    float64 `json:"sim_score"`

	// Labels 用于 explain / 观测，不参与打分
	Labels map[string]utils.Label `json:"-"`
}

// NewItem 以零值计数器创建候选记录。
func NewItem(m MediaItem) *Item {
	return &Item{
		MediaItem: m,
		Labels:    make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
