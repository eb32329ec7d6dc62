package recall

import "github.com/rushteam/animerec/core"

// Batch 是一次拉取的结果。
//   - 成功：Items 为数据源返回的作品，Degraded=false
//   - 失败或超时：Items 为空，Degraded=true，Err 保留原因
//
// 降级批次同样会被合并（对候选集合没有贡献），请求继续执行。
type Batch struct {
	Source   string
	Items    []core.MediaItem
	Degraded bool
	Err      error
}

// OK 返回一个成功批次。
func OK(source string, items []core.MediaItem) Batch {
	return Batch{Source: source, Items: items}
}

// Degrade 返回一个降级为空的批次。
func Degrade(source string, err error) Batch {
	return Batch{Source: source, Degraded: true, Err: err}
}
