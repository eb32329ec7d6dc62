// Package config 维护 Node 类型注册表，把 pipeline 文件配置构建为可执行的 Pipeline。
//
// 使用配置驱动时需 import "github.com/rushteam/animerec/config/builders"：
// 其 init 向默认注册表注册无外部依赖的 Node（rank.similarity、rank.sort、rerank.topn 等），
// builders.NewRegistry 返回绑定数据源/存储的独立注册表（额外包含 recall.hybrid、filter）。
package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/animerec/pipeline"
)

type NodeBuilder = pipeline.NodeBuilder

// Registry 是并发安全的 Node 类型注册表。同名类型后注册者覆盖先注册者。
type Registry struct {
	mu       sync.RWMutex
	builders map[string]NodeBuilder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]NodeBuilder)}
}

func (r *Registry) Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[typeName] = builder
}

// Types 返回已注册类型（升序）。
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.builders))
	for t := range r.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Factory 返回当前注册表的快照。
func (r *Registry) Factory() *pipeline.NodeFactory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range r.builders {
		f.Register(typeName, builder)
	}
	return f
}

// Validate 一次性报告配置中所有缺失类型与未注册类型。
func (r *Registry) Validate(cfg *pipeline.Config) error {
	if cfg == nil {
		return errors.New("pipeline config is nil")
	}
	if len(cfg.Pipeline.Nodes) == 0 {
		return errors.New("pipeline config has no nodes")
	}
	f := r.Factory()
	var errs []error
	for i, nc := range cfg.Pipeline.Nodes {
		switch {
		case nc.Type == "":
			errs = append(errs, fmt.Errorf("node #%d: missing type", i))
		case !f.Has(nc.Type):
			errs = append(errs, fmt.Errorf("node #%d: unsupported type %q", i, nc.Type))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w (supported: %v)", errors.Join(errs...), r.Types())
	}
	return nil
}

// Build 校验配置、构建节点并校验链路结构。
func (r *Registry) Build(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := r.Validate(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(r.Factory())
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var defaultRegistry = NewRegistry()

// Register 向默认注册表注册 Node 类型，通常在 init 中调用。
func Register(typeName string, builder NodeBuilder) {
	defaultRegistry.Register(typeName, builder)
}

// SupportedTypes 返回默认注册表中的类型。
func SupportedTypes() []string {
	return defaultRegistry.Types()
}

// DefaultFactory 返回默认注册表的 NodeFactory 快照。
func DefaultFactory() *pipeline.NodeFactory {
	return defaultRegistry.Factory()
}

// ValidatePipelineConfig 用默认注册表校验配置。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	return defaultRegistry.Validate(cfg)
}

// BuildPipeline 用默认注册表构建 Pipeline。
func BuildPipeline(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	return defaultRegistry.Build(cfg)
}
