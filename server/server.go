// Package server 提供推荐服务的 HTTP 接口。
//
//	GET /health                                  → {"status":"ok"}
//	GET /recommend/{username}?min_score=&top_n=  → 推荐列表
//	GET /metrics                                 → Prometheus 指标
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/animerec/core"
	"github.com/rushteam/animerec/pkg/logging"
)

// Server 是 HTTP 服务。
type Server struct {
	cfg  Config
	http *http.Server
}

// Defaults 是请求未携带参数时使用的默认值。
type Defaults struct {
	MinScore int
	TopN     int
}

// New 创建 HTTP 服务。
func New(cfg Config, rec Recommender, defaults Defaults) *Server {
	if defaults.TopN <= 0 {
		defaults.TopN = core.DefaultTopN
	}
	if defaults.MinScore < 0 {
		defaults.MinScore = core.DefaultMinScore
	}
	s := &Server{cfg: cfg}
	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      NewRouter(cfg, rec, defaults),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// NewRouter 构建路由。
func NewRouter(cfg Config, rec Recommender, defaults Defaults) http.Handler {
	h := &handler{rec: rec, defaultMinScore: defaults.MinScore, defaultTopN: defaults.TopN}

	r := chi.NewRouter()
	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog)
	r.Use(corsHandler(cfg))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.With(rateLimit(cfg)).Get("/recommend/{username}", h.recommend)
	return r
}

// Handler 返回根 http.Handler（测试用）。
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run 启动服务并阻塞，ctx 取消后优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	logging.Info().Msg("http server shutting down")
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
