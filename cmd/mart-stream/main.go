package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"insightmart/internal/modkit"
	"insightmart/internal/modkit/module"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/config"
	"insightmart/internal/platform/logger"
	"insightmart/internal/platform/schedule"
	"insightmart/internal/platform/store"
	"insightmart/internal/platform/store/schema"

	streammod "insightmart/internal/services/stream/module"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		fOnce    = flag.Bool("once", false, "run one pass over every source and exit")
		fSources = flag.String("sources", "", "comma separated sources, overrides CORE_STREAM_SOURCES")
		fMigrate = flag.Bool("migrate", false, "apply pending warehouse migrations and sink DDL first")
	)
	flag.Parse()

	if *fSources != "" {
		_ = os.Setenv("CORE_STREAM_SOURCES", *fSources)
	}

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()
	st, err := store.Open(context.Background(), store.Config{
		AppName: "mart-stream",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		CH: store.CHConfig{
			Enabled:    true,
			URL:        chCfg.MustString("DBURL"),
			LogSQL:     chCfg.MayBool("LOG_SQL", false),
			ClientName: "insightmart",
			ClientTag:  "stream",
		},
	}, store.WithLogger(*l))
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

	if *fMigrate {
		if err := schema.UpPG(pgCfg.MustString("DBURL")); err != nil {
			l.Panic().Err(err).Msg("migrate failed")
		}
		if err := schema.UpCH(context.Background(), st.CH); err != nil {
			l.Panic().Err(err).Msg("sink ddl failed")
		}
	}

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	sm := streammod.New(deps)
	runner := module.MustPortsOf[streammod.Ports](sm).Runner

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec := sm.Options().Schedule
	if *fOnce || strings.EqualFold(spec, "once") || spec == "" {
		logs, err := runner.RunOnce(ctx)
		for _, run := range logs {
			l.Info().
				Str("source", run.Kind).
				Str("status", run.Status).
				Int("appended", run.Appended).
				Int("rejected", run.Rejected).
				Msg("stream pass finished")
		}
		if err != nil {
			l.Error().Err(err).Msg("stream pass failed")
			stop()
			os.Exit(1)
		}
		return
	}

	if err := schedule.Run(ctx, "mart-stream", spec, func(ctx context.Context) error {
		_, err := runner.RunOnce(ctx)
		return err
	}); err != nil {
		l.Panic().Err(err).Msg("stream scheduler")
	}
}
