package utils

// StringSet 是字符串集合，零值不可写，使用 NewStringSet 创建。
type StringSet map[string]struct{}

// NewStringSet 由若干切片构建集合（重复元素只保留一个）。
func NewStringSet(parts ...[]string) StringSet {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	s := make(StringSet, n)
	for _, p := range parts {
		for _, v := range p {
			s[v] = struct{}{}
		}
	}
	return s
}

// Has 判断元素是否存在。
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// IntersectCount 返回 values 去重后与集合 s 的交集大小。
func IntersectCount(values []string, s map[string]struct{}) int {
	if len(values) == 0 || len(s) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	n := 0
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := s[v]; ok {
			n++
		}
	}
	return n
}

// Jaccard 计算 |a∩b| / max(|a∪b|, 1)。
// 两个集合都为空时返回 0（并集下限为 1，避免除零）。
func Jaccard(a, b StringSet) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for v := range small {
		if _, ok := large[v]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union < 1 {
		union = 1
	}
	return float64(inter) / float64(union)
}
