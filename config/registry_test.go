package config

import (
	"context"
	"strings"
	"testing"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pipeline"
)

func stubBuilder(name string, kind pipeline.Kind) NodeBuilder {
	return func(map[string]interface{}) (pipeline.Node, error) {
		return &pipeline.NodeFunc{
			NodeName: name,
			NodeKind: kind,
			Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
				return items, nil
			},
		}, nil
	}
}

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("recall.stub", stubBuilder("recall.stub", pipeline.KindRecall))
	r.Register("rank.stub", stubBuilder("rank.stub", pipeline.KindRank))
	r.Register("", stubBuilder("ignored", pipeline.KindRank))
	r.Register("nil", nil)
	return r
}

func configOf(types ...string) *pipeline.Config {
	cfg := &pipeline.Config{}
	for _, t := range types {
		cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: t})
	}
	return cfg
}

func TestRegistry_Types(t *testing.T) {
	got := newTestRegistry().Types()
	if strings.Join(got, ",") != "rank.stub,recall.stub" {
		t.Errorf("Types = %v", got)
	}
}

func TestRegistry_Validate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Validate(configOf("recall.stub", "rank.stub")); err != nil {
		t.Errorf("Validate: %v", err)
	}
	if err := r.Validate(nil); err == nil {
		t.Error("nil 配置应报错")
	}
	if err := r.Validate(configOf()); err == nil {
		t.Error("空节点应报错")
	}

	err := r.Validate(configOf("recall.stub", "rank.lr", "", "rank.dnn"))
	if err == nil {
		t.Fatal("期望报错")
	}
	for _, want := range []string{`"rank.lr"`, `"rank.dnn"`, "missing type", "rank.stub"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("错误信息应包含 %s: %v", want, err)
		}
	}
}

func TestRegistry_Build(t *testing.T) {
	r := newTestRegistry()
	p, err := r.Build(configOf("recall.stub", "rank.stub"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(p.Nodes) != 2 || p.Nodes[0].Name() != "recall.stub" {
		t.Errorf("nodes = %v", p.Nodes)
	}

	if _, err := r.Build(configOf("rank.stub", "recall.stub")); err == nil {
		t.Error("首个节点不是召回节点时应报错")
	}
}
