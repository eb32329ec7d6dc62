package core

import (
	"errors"
	"sync"
	"testing"
)

func TestRecommendContext_Memo(t *testing.T) {
	rctx := &RecommendContext{}
	calls := 0
	load := func() (any, error) {
		calls++
		return calls, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v, err := rctx.Memo("a", load); err != nil || v != 1 {
				t.Errorf("Memo = %v, %v", v, err)
			}
		}()
	}
	wg.Wait()
	if calls != 1 {
		t.Errorf("load 执行了 %d 次, want 1", calls)
	}

	// 不同 key 各自加载
	if v, _ := rctx.Memo("b", load); v != 2 {
		t.Errorf("Memo(b) = %v, want 2", v)
	}

	// 错误同样被缓存
	boom := errors.New("boom")
	failing := func() (any, error) {
		calls++
		return nil, boom
	}
	before := calls
	for i := 0; i < 3; i++ {
		if _, err := rctx.Memo("c", failing); !errors.Is(err, boom) {
			t.Errorf("err = %v", err)
		}
	}
	if calls-before != 1 {
		t.Errorf("失败的 load 执行了 %d 次, want 1", calls-before)
	}

	// 新请求重新加载
	if v, _ := (&RecommendContext{}).Memo("a", load); v == 1 {
		t.Error("新的 RecommendContext 不应复用其他请求的结果")
	}
}
