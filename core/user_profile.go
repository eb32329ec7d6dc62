package core

import "github.com/rushteam/animerec/pkg/title"

// LikedItem 是用户已看完且评分达标的作品。
// Score 为 0-100 刻度（0-10 刻度的输入已 ×10）。
type LikedItem struct {
	MediaItem
	Score float64
}

// UserProfile 是单次请求内的用户画像。
//
// 它不是某一个 Node，而是：
//   - 驱动召回：每个 Liked 作品触发一次相似作品拉取，AllGenres 中每个类型触发一次榜单拉取
//   - 驱动过滤：WatchedIDs / WatchedTitles 组成排除集合
//   - 驱动打分：AllGenres / AllTags 是重合度基线，Liked 是相似度基线
//
// 画像由 profile.Build 构建，请求内只读。
type UserProfile struct {
	UserName string

	// Liked 保持数据源顺序，顺序没有业务含义
	Liked []LikedItem

	// 排除集合（覆盖所有列表状态，不只是 completed）
	WatchedIDs    map[int64]struct{}
	WatchedTitles map[string]struct{}

	// 基线集合：Liked 的类型/标签并集
	AllGenres map[string]struct{}
	AllTags   map[string]struct{}
}

// NewUserProfile 创建一个空画像。
func NewUserProfile(userName string) *UserProfile {
	return &UserProfile{
		UserName:      userName,
		Liked:         make([]LikedItem, 0),
		WatchedIDs:    make(map[int64]struct{}),
		WatchedTitles: make(map[string]struct{}),
		AllGenres:     make(map[string]struct{}),
		AllTags:       make(map[string]struct{}),
	}
}

// AddWatched 把作品加入排除集合。
func (p *UserProfile) AddWatched(id int64, romaji string) {
	p.WatchedIDs[id] = struct{}{}
	p.WatchedTitles[title.Normalize(romaji)] = struct{}{}
}

// AddLiked 追加喜欢的作品，并更新类型/标签基线。
func (p *UserProfile) AddLiked(li LikedItem) {
	p.Liked = append(p.Liked, li)
	for _, g := range li.Genres {
		p.AllGenres[g] = struct{}{}
	}
	for _, t := range li.Tags {
		p.AllTags[t] = struct{}{}
	}
}

// IsExcluded 判断作品是否已在用户的观看记录中（按 ID 或归一化标题）。
func (p *UserProfile) IsExcluded(m *MediaItem) bool {
	if p == nil || m == nil {
		return false
	}
	if _, ok := p.WatchedIDs[m.ID]; ok {
		return true
	}
	_, ok := p.WatchedTitles[title.Normalize(m.TitleRomaji)]
	return ok
}

// Genres 返回 AllGenres 的列表形式（无序）。
func (p *UserProfile) Genres() []string {
	out := make([]string, 0, len(p.AllGenres))
	for g := range p.AllGenres {
		out = append(out, g)
	}
	return out
}
