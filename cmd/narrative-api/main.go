package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"narrativedetect/internal/api"
	"narrativedetect/internal/platform/config"
	"narrativedetect/internal/platform/logger"
	"narrativedetect/internal/platform/store/pg"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("NARRATIVE_API_")
	pgCfg := root.Prefix("NARRATIVE_PGSQL_")
	l := logger.Get()

	p, err := pg.Open(context.Background(), pg.Config{
		URL:      pgCfg.MustString("DBURL"),
		MaxConns: int32(pgCfg.MayInt("MAX_CONNS", 4)),
	}, nil, nil)
	if err != nil {
		l.Panic().Err(err).Msg("pg.Open failed")
	}
	defer p.Close()

	srv := api.NewServer(apiCfg, p, "narrative-api", time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := srv.Run(); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
