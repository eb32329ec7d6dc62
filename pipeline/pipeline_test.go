package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/animerec/core"
)

type appendNode struct {
	name string
	id   int64
	err  error
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindPostProcess }
func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(core.MediaItem{ID: n.id})), nil
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "a", id: 1},
		&appendNode{name: "b", id: 2},
	}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != 1 || out[1].ID != 2 {
		t.Errorf("out = %+v", out)
	}
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "ok", id: 1},
		&appendNode{name: "broken", err: boom},
		&appendNode{name: "never", id: 3},
	}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if err.Error() != "broken: boom" {
		t.Errorf("err = %q", err.Error())
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "p.yaml")
	jsonPath := filepath.Join(dir, "p.json")
	_ = os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n  nodes:\n    - type: a\n      config:\n        n: 3\n"), 0o600)
	_ = os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"b"}]}}`), 0o600)

	y, err := LoadFromYAML(yamlPath)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if y.Pipeline.Name != "y" || len(y.Pipeline.Nodes) != 1 || y.Pipeline.Nodes[0].Config["n"] != 3 {
		t.Errorf("yaml cfg = %+v", y.Pipeline)
	}

	j, err := LoadFromJSON(jsonPath)
	if err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}
	if j.Pipeline.Name != "j" || j.Pipeline.Nodes[0].Type != "b" {
		t.Errorf("json cfg = %+v", j.Pipeline)
	}

	f := NewNodeFactory()
	f.Register("a", func(cfg map[string]interface{}) (Node, error) {
		return &appendNode{name: "a"}, nil
	})
	if _, err := y.BuildPipeline(f); err != nil {
		t.Errorf("BuildPipeline: %v", err)
	}
	if _, err := j.BuildPipeline(f); err == nil {
		t.Error("未注册类型应报错")
	}
}

type kindNode struct {
	name string
	kind Kind
}

func (n *kindNode) Name() string { return n.name }
func (n *kindNode) Kind() Kind   { return n.kind }
func (n *kindNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func TestPipeline_Validate(t *testing.T) {
	recallNode := &kindNode{name: "recall.hybrid", kind: KindRecall}
	rankNode := &kindNode{name: "rank.sort", kind: KindRank}

	tests := []struct {
		name    string
		p       *Pipeline
		wantErr bool
	}{
		{name: "nil", p: nil, wantErr: true},
		{name: "空链路", p: &Pipeline{}, wantErr: true},
		{name: "召回在首位", p: &Pipeline{Nodes: []Node{recallNode, rankNode}}},
		{name: "首位不是召回", p: &Pipeline{Nodes: []Node{rankNode, recallNode}}, wantErr: true},
		{name: "重复召回", p: &Pipeline{Nodes: []Node{recallNode, rankNode, recallNode}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPipeline_InsertAfter(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&kindNode{name: "recall.hybrid", kind: KindRecall},
		&kindNode{name: "rank.sort", kind: KindRank},
	}}
	var seen int
	counter := &NodeFunc{NodeName: "count", NodeKind: KindPostProcess, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
		seen = len(items)
		return items, nil
	}}

	q := p.InsertAfter(KindRecall, counter)
	if len(p.Nodes) != 2 {
		t.Fatal("原 Pipeline 不应被修改")
	}
	if len(q.Nodes) != 3 || q.Nodes[1].Name() != "count" || q.Nodes[1].Kind() != KindPostProcess {
		t.Fatalf("nodes = %v", q.Nodes)
	}
	in := []*core.Item{core.NewItem(core.MediaItem{ID: 1}), core.NewItem(core.MediaItem{ID: 2})}
	if _, err := q.Run(context.Background(), &core.RecommendContext{}, in); err != nil {
		t.Fatal(err)
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}

	// 找不到阶段时追加到末尾
	r := p.InsertAfter(KindReRank, counter)
	if r.Nodes[len(r.Nodes)-1].Name() != "count" {
		t.Errorf("nodes = %v", r.Nodes)
	}
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.JSON")
	ymlPath := filepath.Join(dir, "p.yml")
	_ = os.WriteFile(jsonPath, []byte(`{"pipeline":{"name":"j","nodes":[{"type":"recall.hybrid"}]}}`), 0o600)
	_ = os.WriteFile(ymlPath, []byte("pipeline:\n  name: y\n  nodes:\n    - type: rank.sort\n"), 0o600)

	j, err := Load(jsonPath)
	if err != nil || j.Pipeline.Name != "j" {
		t.Errorf("Load json = %+v, %v", j, err)
	}
	y, err := Load(ymlPath)
	if err != nil || y.Pipeline.Nodes[0].Type != "rank.sort" {
		t.Errorf("Load yaml = %+v, %v", y, err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("文件不存在时应报错")
	}
	if _, err := Parse([]byte("{}"), "toml"); err == nil {
		t.Error("未知格式应报错")
	}
	if _, err := Parse([]byte("pipeline: ["), FormatYAML); err == nil {
		t.Error("非法 yaml 应报错")
	}
}
