// Package profile 从数据源的列表响应构建单次请求的用户画像。
package profile

import (
	"fmt"
	"strings"

	"github.com/rushteam/animerec/core"
)

// CompletedListName 是参与"喜欢"判定的列表名（大小写不敏感）。
const CompletedListName = "completed"

// Build 构建用户画像。
//   - completed：用户带评分的列表集合，只有 completed 列表中评分达标的记录进入 Liked
//   - all：用户所有状态的列表集合，全部进入排除集合
//   - minScore：0-100 刻度的最低评分；<=10 的评分视为 10 分制并 ×10 后再比较
//
// 响应缺字段时返回 INVALID_INPUT，不做本地恢复。
func Build(userName string, completed, all *core.ListCollection, minScore float64) (*core.UserProfile, error) {
	p, err := FromCompleted(userName, completed, minScore)
	if err != nil {
		return nil, err
	}
	if err := ApplyWatched(p, all); err != nil {
		return nil, err
	}
	return p, nil
}

// FromCompleted 只根据 completed 列表构建画像（排除集合为空）。
// 调用方可在 Liked 为空时直接返回，省去拉取全部列表。
func FromCompleted(userName string, completed *core.ListCollection, minScore float64) (*core.UserProfile, error) {
	if completed == nil {
		return nil, core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "profile: completed list response is missing")
	}

	p := core.NewUserProfile(userName)
	for _, lst := range completed.Lists {
		if !strings.EqualFold(lst.Name, CompletedListName) {
			continue
		}
		for i, e := range lst.Entries {
			if e.Score == nil {
				continue
			}
			if err := checkMedia(e.Media); err != nil {
				return nil, wrapEntry(lst.Name, i, err)
			}
			score := NormalizeScore(*e.Score)
			if score < minScore {
				continue
			}
			p.AddLiked(core.LikedItem{MediaItem: *e.Media, Score: score})
		}
	}
	return p, nil
}

// ApplyWatched 把全部列表中的作品写入排除集合。
func ApplyWatched(p *core.UserProfile, all *core.ListCollection) error {
	if all == nil {
		return core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "profile: all list response is missing")
	}
	for _, lst := range all.Lists {
		for i, e := range lst.Entries {
			if err := checkMedia(e.Media); err != nil {
				return wrapEntry(lst.Name, i, err)
			}
			p.AddWatched(e.Media.ID, e.Media.TitleRomaji)
		}
	}
	return nil
}

// NormalizeScore 把 10 分制评分换算为 100 分制。
func NormalizeScore(score float64) float64 {
	if score <= 10 {
		return score * 10
	}
	return score
}

func checkMedia(m *core.MediaItem) error {
	if m == nil {
		return fmt.Errorf("media is missing")
	}
	if m.ID <= 0 {
		return fmt.Errorf("media id %d is invalid", m.ID)
	}
	return nil
}

func wrapEntry(list string, idx int, err error) error {
	return core.WrapDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput,
		fmt.Sprintf("profile: list %q entry %d", list, idx), err)
}
