package utils

import "strings"

// Label 记录候选在链路中的来历（来自哪些批次、相似度等），用于 explain 与日志，不参与打分。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // 写入阶段：recall / rank / rerank
}

const (
	labelValueSep  = "|"
	labelSourceSep = ","
)

// Values 返回按写入顺序去重后的 Value 列表。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, labelValueSep)
}

// MergeLabel 合并同名 Label：Value 以 '|'、Source 以 ',' 累积，已出现过的值不重复追加。
// 同一作品可能在多个批次中反复出现，去重保证 Label 长度只随来源种类增长。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, labelValueSep),
		Source: appendUnique(existing.Source, incoming.Source, labelSourceSep),
	}
}

func appendUnique(joined, v, sep string) string {
	switch {
	case v == "":
		return joined
	case joined == "":
		return v
	}
	for _, part := range strings.Split(joined, sep) {
		if part == v {
			return joined
		}
	}
	return joined + sep + v
}
