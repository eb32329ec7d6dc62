package server

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/recommend"
)

type fakeRecommender struct {
	last recommend.Request
	res  *recommend.Result
	err  error
}

func (f *fakeRecommender) RecommendDetailed(_ context.Context, req recommend.Request) (*recommend.Result, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func newTestRouter(rec Recommender) http.Handler {
	cfg := DefaultConfig()
	cfg.RateLimitDisabled = true
	return NewRouter(cfg, rec, Defaults{MinScore: 75, TopN: 15})
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	rr := do(t, newTestRouter(&fakeRecommender{}), "/health")
	if rr.Code != http.StatusOK {
		t.Fatalf("状态码应为 200，得到 %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("期望 status=ok，得到 %v", body)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("响应应带 X-Request-Id")
	}
}

func TestRecommend_Defaults(t *testing.T) {
	eng := "Frieren"
	rec := &fakeRecommender{res: &recommend.Result{
		Items: []*core.Item{{
			MediaItem: core.MediaItem{
				ID:           7,
				TitleRomaji:  "Sousou no Frieren",
				TitleEnglish: &eng,
				Genres:       []string{"Adventure"},
				Tags:         []string{},
				CoverImage:   &core.CoverImage{ExtraLarge: "https://img/7.jpg"},
			},
			Score:       4.5,
			DirectCount: 1,
			GenreCount:  1,
			SimScore:    0.25,
		}},
		Degraded: 2,
	}}
	rr := do(t, newTestRouter(rec), "/recommend/alice")
	if rr.Code != http.StatusOK {
		t.Fatalf("状态码应为 200，得到 %d: %s", rr.Code, rr.Body.String())
	}
	if rec.last.UserName != "alice" || rec.last.MinScore != 75 || rec.last.TopN != 15 {
		t.Errorf("默认参数错误: %+v", rec.last)
	}
	if got := rr.Header().Get(headerDegraded); got != "2" {
		t.Errorf("%s 应为 2，得到 %q", headerDegraded, got)
	}

	var items []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("期望 1 条，得到 %d", len(items))
	}
	for _, key := range []string{"id", "title_romaji", "title_english", "genres", "tags", "coverImage", "score", "direct_count", "genre_count", "tag_count", "sim_score"} {
		if _, ok := items[0][key]; !ok {
			t.Errorf("响应缺少字段 %s", key)
		}
	}
	cover, _ := items[0]["coverImage"].(map[string]any)
	if cover["extraLarge"] != "https://img/7.jpg" {
		t.Errorf("coverImage 错误: %v", items[0]["coverImage"])
	}
}

func TestRecommend_EmptyIsArray(t *testing.T) {
	rec := &fakeRecommender{res: &recommend.Result{Items: []*core.Item{}}}
	rr := do(t, newTestRouter(rec), "/recommend/bob?min_score=0&top_n=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("状态码应为 200，得到 %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("空结果应为 []，得到 %s", rr.Body.String())
	}
	if rec.last.MinScore != 0 || rec.last.TopN != 1 {
		t.Errorf("参数未透传: %+v", rec.last)
	}
}

func TestRecommend_InvalidParams(t *testing.T) {
	cases := []struct {
		name   string
		target string
	}{
		{"min_score 过大", "/recommend/alice?min_score=101"},
		{"min_score 为负", "/recommend/alice?min_score=-1"},
		{"min_score 非整数", "/recommend/alice?min_score=abc"},
		{"top_n 为 0", "/recommend/alice?top_n=0"},
		{"top_n 过大", "/recommend/alice?top_n=51"},
		{"top_n 非整数", "/recommend/alice?top_n=1.5"},
		{"filter 过长", "/recommend/alice?filter=" + strings.Repeat("a", 513)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &fakeRecommender{res: &recommend.Result{}}
			rr := do(t, newTestRouter(rec), tc.target)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("状态码应为 400，得到 %d", rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["detail"] == "" {
				t.Error("应返回 detail")
			}
			if rec.last.UserName != "" {
				t.Error("参数非法时不应调用推荐")
			}
		})
	}
}

func TestRecommend_Errors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "上游不可用",
			err:    core.WrapDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: request failed", errors.New("dial tcp")),
			status: http.StatusInternalServerError,
		},
		{
			name:   "用户不存在",
			err:    core.NewDomainError(core.ModuleSource, core.ErrorCodeNotFound, "anilist: user not found"),
			status: http.StatusInternalServerError,
		},
		{
			name:   "过滤表达式非法",
			err:    core.WrapDomainError(core.ModuleFilter, core.ErrorCodeInvalidInput, "filter: invalid expression", errors.New("syntax error")),
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, newTestRouter(&fakeRecommender{err: tc.err}), "/recommend/alice")
			if rr.Code != tc.status {
				t.Fatalf("状态码应为 %d，得到 %d", tc.status, rr.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["detail"] != tc.err.Error() {
				t.Errorf("detail 应为 %q，得到 %q", tc.err.Error(), body["detail"])
			}
		})
	}
}

func TestRecommend_ErrorLogLevel(t *testing.T) {
	prev := logging.Logger()
	defer logging.SetLogger(prev)

	cases := []struct {
		name  string
		err   error
		level string
		msg   string
	}{
		{
			name:  "上游不可用记 warn",
			err:   core.NewDomainError(core.ModuleSource, core.ErrorCodeUnavailable, "anilist: circuit open"),
			level: `"level":"warn"`,
			msg:   "upstream unavailable",
		},
		{
			name:  "其他错误记 error",
			err:   core.NewDomainError(core.ModuleProfile, core.ErrorCodeInvalidInput, "profile: list entry"),
			level: `"level":"error"`,
			msg:   "recommend request failed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logging.SetLogger(zerolog.New(&buf))
			rr := do(t, newTestRouter(&fakeRecommender{err: tc.err}), "/recommend/alice")
			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("状态码 = %d", rr.Code)
			}
			var found bool
			for _, line := range strings.Split(buf.String(), "\n") {
				if strings.Contains(line, tc.msg) {
					found = true
					if !strings.Contains(line, tc.level) {
						t.Errorf("日志级别不符: %s", line)
					}
				}
			}
			if !found {
				t.Errorf("未找到日志 %q: %s", tc.msg, buf.String())
			}
		})
	}
}

func TestRecommend_CORS(t *testing.T) {
	rec := &fakeRecommender{res: &recommend.Result{Items: []*core.Item{}}}
	req := httptest.NewRequest(http.MethodGet, "/recommend/alice", nil)
	req.Header.Set("Origin", "https://front.example")
	rr := httptest.NewRecorder()
	newTestRouter(rec).ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("应返回 CORS 头")
	}
}

func TestRecommend_RateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimitRequests = 1
	h := NewRouter(cfg, &fakeRecommender{res: &recommend.Result{}}, Defaults{MinScore: 75, TopN: 15})

	if rr := do(t, h, "/recommend/alice"); rr.Code != http.StatusOK {
		t.Fatalf("首个请求应成功，得到 %d", rr.Code)
	}
	rr := do(t, h, "/recommend/alice")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("超出限流应返回 429，得到 %d", rr.Code)
	}
	// 健康检查不受限流影响
	if rr := do(t, h, "/health"); rr.Code != http.StatusOK {
		t.Errorf("health 不应被限流，得到 %d", rr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := do(t, newTestRouter(&fakeRecommender{}), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("状态码应为 200，得到 %d", rr.Code)
	}
}

func TestServer_RunShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	s := New(cfg, &fakeRecommender{}, Defaults{})
	if s.Handler() == nil {
		t.Fatal("Handler 不应为 nil")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run 在取消后应正常退出: %v", err)
	}
}
