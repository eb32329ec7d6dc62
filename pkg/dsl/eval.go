// Package dsl 提供基于 CEL (Common Expression Language) 的候选过滤表达式。
package dsl

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/animerec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的配置表达式，最多 MaxCachedPrograms 条
	programs sync.Map // map[string]*Program
	cached   atomic.Int64
)

const (
	// MaxCachedPrograms 是缓存表达式的上限，超出后 Compile 不再写入缓存
	MaxCachedPrograms = 256

	// DefaultCostLimit 是单次求值的 CEL 运行时代价上限，超出时求值失败
	DefaultCostLimit uint64 = 100_000
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的表达式，可并发执行。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译配置中的表达式并缓存，表达式必须返回布尔值。
// 请求参数等不受控的表达式应使用 CompileUncached。
//
// 可用变量：
//   - item.id / item.title_romaji / item.title_english / item.genres / item.tags
//   - item.score / item.direct_count / item.genre_count / item.tag_count / item.sim_score
//   - label.<key>：候选 Label 的 value
//   - rctx.user_name / rctx.min_score / rctx.top_n
//
// 示例：
//   - `item.direct_count > 0`
//   - `"Action" in item.genres && item.score > 4.0`
//   - `label.recall_source.contains("genre")`
func Compile(expr string) (*Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(*Program), nil
	}
	p, err := compile(expr, DefaultCostLimit)
	if err != nil {
		return nil, err
	}
	if cached.Load() >= MaxCachedPrograms {
		return p, nil
	}
	if prev, loaded := programs.LoadOrStore(expr, p); loaded {
		return prev.(*Program), nil
	}
	cached.Add(1)
	return p, nil
}

// CompileUncached 编译表达式但不写入缓存，用于请求级表达式。
func CompileUncached(expr string) (*Program, error) {
	return compile(expr, DefaultCostLimit)
}

func compile(expr string, costLimit uint64) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prg, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// Evaluate 对单个候选执行表达式。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 label key 会报错，使用 has(label.key) 或 label.key != null 判断
		return false, fmt.Errorf("eval error: %w", err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// String 返回原始表达式。
func (p *Program) String() string {
	return p.expr
}

// Eval 编译（不缓存）并执行表达式，空表达式视为 true。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := CompileUncached(expr)
	if err != nil {
		return false, err
	}
	return p.Evaluate(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(it.Labels))
	for k, v := range it.Labels {
		labels[k] = v.Value
	}

	english := ""
	if it.TitleEnglish != nil {
		english = *it.TitleEnglish
	}
	genres := it.Genres
	if genres == nil {
		genres = []string{}
	}
	tags := it.Tags
	if tags == nil {
		tags = []string{}
	}

	item := map[string]any{
		"id":            it.ID,
		"title_romaji":  it.TitleRomaji,
		"title_english": english,
		"genres":        genres,
		"tags":          tags,
		"score":         it.Score,
		"direct_count":  int64(it.DirectCount),
		"genre_count":   int64(it.GenreCount),
		"tag_count":     int64(it.TagCount),
		"sim_score":     it.SimScore,
	}

	ctx := map[string]any{}
	if rctx != nil {
		ctx["user_name"] = rctx.UserName
		ctx["min_score"] = int64(rctx.MinScore)
		ctx["top_n"] = int64(rctx.TopN)
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  ctx,
	}
}
