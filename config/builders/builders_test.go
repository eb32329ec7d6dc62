package builders

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushteam/animerec/config"
	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/filter"
	"github.com/rushteam/animerec/pipeline"
	"github.com/rushteam/animerec/recall"
	"github.com/rushteam/animerec/rerank"
	"github.com/rushteam/animerec/store"
)

type nopSource struct{}

func (nopSource) CompletedList(context.Context, string) (*core.ListCollection, error) {
	return &core.ListCollection{}, nil
}
func (nopSource) AllList(context.Context, string) (*core.ListCollection, error) {
	return &core.ListCollection{}, nil
}
func (nopSource) Recommendations(context.Context, int64) ([]core.MediaItem, error) { return nil, nil }
func (nopSource) ByGenre(context.Context, string) ([]core.MediaItem, error)        { return nil, nil }

const pipelineYAML = `
pipeline:
  name: anime
  nodes:
    - type: recall.hybrid
      config:
        timeout: 3s
        max_concurrent: 4
    - type: rank.similarity
    - type: rank.sort
    - type: filter
      config:
        filters:
          - type: watched
          - type: blacklist
            item_ids: [7, 8]
            key: blacklist:global
    - type: filter.expr
      config:
        expr: "item.score > 0"
    - type: rerank.diversity
      config:
        max_per_key: 2
    - type: rerank.topn
      config:
        n: 10
`

func TestBuildPipelineFromYAML(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	reg := NewRegistry(Deps{Source: nopSource{}, Store: s})

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(pipelineYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := pipeline.LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if err := reg.Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p, err := reg.Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"recall.hybrid", "rank.similarity", "rank.sort", "filter.node", "filter.expr", "rerank.diversity", "rerank.topn"}
	if len(p.Nodes) != len(want) {
		t.Fatalf("节点数 = %d, want %d", len(p.Nodes), len(want))
	}
	for i, name := range want {
		if p.Nodes[i].Name() != name {
			t.Errorf("Nodes[%d] = %s, want %s", i, p.Nodes[i].Name(), name)
		}
	}

	hybrid := p.Nodes[0].(*recall.HybridNode)
	if hybrid.Fanout.Timeout != 3*time.Second || hybrid.Fanout.MaxConcurrent != 4 {
		t.Errorf("fanout = %+v", hybrid.Fanout)
	}
	if fn := p.Nodes[3].(*filter.FilterNode); len(fn.Filters) != 2 {
		t.Errorf("filters = %d, want 2", len(fn.Filters))
	}
	if topn := p.Nodes[6].(*rerank.TopNNode); topn.N != 10 {
		t.Errorf("topn.N = %d", topn.N)
	}
}

func TestValidatePipelineConfig_Unknown(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.lr"}}
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("期望未注册类型报错")
	}
}

func TestNewRegistry_Independent(t *testing.T) {
	a := NewRegistry(Deps{Source: nopSource{}})
	b := NewRegistry(Deps{})

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "recall.hybrid"}, {Type: "rank.sort"}}
	if _, err := a.Build(cfg); err != nil {
		t.Fatalf("a.Build: %v", err)
	}
	// b 没有数据源，不受 a 的注册影响
	if _, err := b.Build(cfg); err == nil {
		t.Error("b 缺少数据源时应报错")
	}

	// 默认注册表只包含无外部依赖的类型
	for _, typ := range config.SupportedTypes() {
		if typ == "recall.hybrid" || typ == "filter" {
			t.Errorf("默认注册表不应包含 %s", typ)
		}
	}
}

func TestBuildHybridNode_Filters(t *testing.T) {
	bl := filter.NewBlacklistFilter([]int64{1}, nil, "")

	n, err := BuildHybridNode(Deps{Source: nopSource{}, Filters: []filter.Filter{&filter.WatchedFilter{}, bl}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.(*recall.HybridNode).Filters; len(got) != 2 || got[1] != filter.Filter(bl) {
		t.Errorf("Deps.Filters 未传入: %v", got)
	}

	cfg := map[string]interface{}{"filters": []interface{}{
		map[string]interface{}{"type": "blacklist", "item_ids": []interface{}{5, 6}},
	}}
	n, err = BuildHybridNode(Deps{Source: nopSource{}}, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := n.(*recall.HybridNode).Filters
	if len(got) != 2 || got[0].Name() != "filter.watched" || got[1].Name() != "filter.blacklist" {
		t.Errorf("filters = %v", got)
	}

	bad := map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "user_block"}}}
	if _, err := BuildHybridNode(Deps{Source: nopSource{}}, bad); err == nil {
		t.Error("user_block 没有存储时应报错")
	}
}

func TestBuildHybridNode_Defaults(t *testing.T) {
	n, err := BuildHybridNode(Deps{Source: nopSource{}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	h := n.(*recall.HybridNode)
	def := &core.DefaultRecallConfig{}
	if h.Fanout.Timeout != def.DefaultTimeout() || h.Fanout.MaxConcurrent != def.DefaultMaxConcurrent() {
		t.Errorf("fanout = %+v", h.Fanout)
	}

	if _, err := BuildHybridNode(Deps{}, nil); err == nil {
		t.Error("缺少数据源时应报错")
	}
}

func TestBuildFilterNode_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]interface{}
	}{
		{name: "missing filters", cfg: map[string]interface{}{}},
		{name: "unknown type", cfg: map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "exposed"}}}},
		{name: "key without store", cfg: map[string]interface{}{"filters": []interface{}{map[string]interface{}{"type": "blacklist", "key": "k"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildFilterNode(Deps{}, tt.cfg); err == nil {
				t.Error("期望报错")
			}
		})
	}
}
