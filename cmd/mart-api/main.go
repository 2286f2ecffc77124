package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/config"
	"insightmart/internal/platform/logger"
	phttp "insightmart/internal/platform/net/http"
	"insightmart/internal/platform/store"

	"insightmart/internal/services/api"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	// the ops API only reads Postgres bookkeeping tables
	st, err := store.Open(
		context.Background(),
		store.Config{
			AppName: "mart-api",
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
				SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
				LogSQL:      pgCfg.MayBool("LOG_SQL", false),
			},
		},
		store.WithLogger(*l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	gctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repokit.MustGuard(gctx, st)
	cancel()

	// http server (reads API_PORT)
	srv := phttp.NewServer(root)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
