package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
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

	buildmod "insightmart/internal/services/build/module"

	"github.com/joho/godotenv"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	// .env is optional; real env wins
	_ = godotenv.Load()

	var (
		fOnce    = flag.Bool("once", false, "run a single build and exit, ignoring CORE_BUILD_SCHEDULE")
		fReseed  = flag.Bool("reseed", false, "when the fct_sales cursor is missing, derive it from the latest fact instead of failing; a set cursor is kept")
		fSource  = flag.String("source", "", "batch source: postgres | snowflake")
		fMigrate = flag.Bool("migrate", false, "apply pending warehouse migrations before building")
	)
	flag.Parse()

	if *fReseed {
		mustSetEnv("CORE_BUILD_RESEED", "1")
	}
	mustSetEnv("CORE_BUILD_SOURCE", *fSource)

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()
	if *fMigrate {
		if err := schema.UpPG(pgCfg.MustString("DBURL")); err != nil {
			l.Panic().Err(err).Msg("migrate failed")
		}
	}
	st, err := store.Open(context.Background(), store.Config{
		AppName: "mart-build",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
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

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	bm := buildmod.New(deps)
	runner := module.MustPortsOf[buildmod.Ports](bm).Runner

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec := bm.Options().Schedule
	if *fOnce || spec == "" {
		run, err := runner.RunOnce(ctx)
		if err != nil {
			l.Error().Err(err).Str("run_id", run.ID).Msg("build failed")
			stop()
			os.Exit(1)
		}
		l.Info().Str("run_id", run.ID).Str("status", run.Status).Int("fact_rows", run.FactRows).Msg("build finished")
		return
	}

	if err := schedule.Run(ctx, "mart-build", spec, func(ctx context.Context) error {
		_, err := runner.RunOnce(ctx)
		return err
	}); err != nil {
		l.Panic().Err(err).Msg("build scheduler")
	}
}
