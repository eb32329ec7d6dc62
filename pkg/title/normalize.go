// Package title 提供标题归一化，用于续作/分季的重复检测（不用于展示）。
package title

import (
	"regexp"
	"strings"
)

var (
	// seasonRegex 匹配 "season 2" / "s2" / "part 2" / "final season"
	seasonRegex = regexp.MustCompile(`(?i)(\s*season\s*\d+|\s*s\d+|\s*part\s*\d+|final season)`)
	// splitRegex 匹配第一个冒号、连字符或 en-dash
	splitRegex = regexp.MustCompile(`[:\-–]`)
)

// Normalize 把展示标题归一为比较用的 key：
//  1. 转小写
//  2. 去掉分季/分部标记
//  3. 在第一个 ':' '-' '–' 处截断，保留前半段
//  4. 去掉首尾空白
//
// 空输入返回空串。结果满足 Normalize(Normalize(x)) == Normalize(x)。
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := strings.ToLower(s)
	// 去除后可能拼出新的标记（如 "sfinal season2" -> "s2"），重复直到不再变化
	for {
		next := seasonRegex.ReplaceAllString(t, "")
		if next == t {
			break
		}
		t = next
	}
	if loc := splitRegex.FindStringIndex(t); loc != nil {
		t = t[:loc[0]]
	}
	return strings.TrimSpace(t)
}

// Same 判断两个标题归一化后是否相同。
func Same(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
