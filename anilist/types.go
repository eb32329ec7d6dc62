package anilist

import (
	"fmt"
	"strings"

	"github.com/rushteam/animerec/core"
)

// graphQLRequest 是 GraphQL 请求体。
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e graphQLError) String() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func joinErrors(errs []graphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, "; ")
}

type wireTitle struct {
	Romaji  *string `json:"romaji"`
	English *string `json:"english"`
}

type wireTag struct {
	Name string `json:"name"`
	Rank *int   `json:"rank"`
}

type wireMedia struct {
	ID         int64            `json:"id"`
	Title      *wireTitle       `json:"title"`
	Genres     []string         `json:"genres"`
	Tags       []wireTag        `json:"tags"`
	CoverImage *core.CoverImage `json:"coverImage"`
}

type wireEntry struct {
	Score *float64   `json:"score"`
	Media *wireMedia `json:"media"`
}

type wireList struct {
	Name    string      `json:"name"`
	Entries []wireEntry `json:"entries"`
}

type listCollectionData struct {
	MediaListCollection *struct {
		Lists []wireList `json:"lists"`
	} `json:"MediaListCollection"`
}

type recommendationsData struct {
	Media *struct {
		Recommendations *struct {
			Nodes []struct {
				MediaRecommendation *wireMedia `json:"mediaRecommendation"`
			} `json:"nodes"`
		} `json:"recommendations"`
	} `json:"Media"`
}

type pageData struct {
	Page *struct {
		Media []*wireMedia `json:"media"`
	} `json:"Page"`
}

// toMediaItem 转换为领域形态，只保留相关度 rank 超过阈值的标签。
func (m *wireMedia) toMediaItem(tagRankThreshold int) core.MediaItem {
	item := core.MediaItem{
		ID:         m.ID,
		Genres:     m.Genres,
		CoverImage: m.CoverImage,
	}
	if m.Title != nil {
		if m.Title.Romaji != nil {
			item.TitleRomaji = *m.Title.Romaji
		}
		item.TitleEnglish = m.Title.English
	}
	if item.Genres == nil {
		item.Genres = []string{}
	}
	item.Tags = make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		if t.Rank != nil && *t.Rank > tagRankThreshold {
			item.Tags = append(item.Tags, t.Name)
		}
	}
	return item
}

func (d *listCollectionData) toCollection(tagRankThreshold int) *core.ListCollection {
	if d == nil || d.MediaListCollection == nil {
		return nil
	}
	out := &core.ListCollection{Lists: make([]core.MediaList, 0, len(d.MediaListCollection.Lists))}
	for _, l := range d.MediaListCollection.Lists {
		ml := core.MediaList{Name: l.Name, Entries: make([]core.ListEntry, 0, len(l.Entries))}
		for _, e := range l.Entries {
			entry := core.ListEntry{Score: e.Score}
			if e.Media != nil {
				m := e.Media.toMediaItem(tagRankThreshold)
				entry.Media = &m
			}
			ml.Entries = append(ml.Entries, entry)
		}
		out.Lists = append(out.Lists, ml)
	}
	return out
}
