// Command animerec 启动动画推荐 HTTP 服务。
//
// 配置按 默认值 → config.yaml（或 CONFIG_PATH）→ ANIMEREC_* 环境变量 逐层覆盖：
//
//	ANIMEREC_SERVER_PORT=8000 ANIMEREC_CACHE_BACKEND=memory ./animerec
//
// 收到 SIGINT / SIGTERM 后停止接收新连接，等待进行中的请求完成后退出。
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/animerec/anilist"
	"github.com/rushteam/animerec/appconf"
	"github.com/rushteam/animerec/pkg/logging"
	"github.com/rushteam/animerec/recommend"
	"github.com/rushteam/animerec/server"
	"github.com/rushteam/animerec/store"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("animerec exited")
	}
}

func run() error {
	cfg, err := appconf.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Logging)

	cache, err := store.New(cfg.Cache.StoreConfig())
	if err != nil {
		return err
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logging.Warn().Err(err).Msg("failed to close cache store")
			}
		}()
		logging.Info().Str("backend", cache.Name()).Dur("ttl", cfg.Cache.TTL).Msg("upstream cache enabled")
	}

	source := anilist.NewSource(cfg.AniList, cache, cfg.Cache.TTL)

	var opts []recommend.Option
	if cache != nil {
		opts = append(opts, recommend.WithStore(cache))
	}
	engine, err := recommend.NewEngine(source, cfg.Recommend, opts...)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, engine, server.Defaults{
		MinScore: cfg.Recommend.DefaultMinScore,
		TopN:     cfg.Recommend.DefaultTopN,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
