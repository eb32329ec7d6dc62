package core

import "context"

// MediaSource 是外部作品数据源的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（anilist）实现
//   - 核心只消费返回的数据形态，不关心传输、鉴权、查询语言
//   - 统一召回所需的四类数据访问，避免接口爆炸
//
// 实现：
//   - anilist.Client（GraphQL over HTTP）
//   - anilist.CachedSource（基于 core.Store 的响应缓存装饰器）
type MediaSource interface {
	// CompletedList 获取用户的列表集合（含评分、类型、标签、封面）
	CompletedList(ctx context.Context, userName string) (*ListCollection, error)

	// AllList 获取用户所有状态的列表（只需 ID 与罗马音标题）
	AllList(ctx context.Context, userName string) (*ListCollection, error)

	// Recommendations 获取与某作品关联的推荐作品
	Recommendations(ctx context.Context, mediaID int64) ([]MediaItem, error)

	// ByGenre 获取某类型下排名靠前的作品
	ByGenre(ctx context.Context, genre string) ([]MediaItem, error)
}

// ListCollection 是用户列表集合（completed / watching / dropped ...）。
type ListCollection struct {
	Lists []MediaList `json:"lists"`
}

// MediaList 是一个具名列表。
type MediaList struct {
	Name    string      `json:"name"`
	Entries []ListEntry `json:"entries"`
}

// ListEntry 是列表中的一条记录；Score 为 nil 表示用户未评分（不等于 0 分）。
type ListEntry struct {
	Score *float64   `json:"score"`
	Media *MediaItem `json:"media"`
}
