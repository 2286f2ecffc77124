// Package schema embeds the warehouse migrations and the stream sink DDL
package schema

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"sort"
	"strings"

	perr "insightmart/internal/platform/errors"
	"insightmart/internal/platform/logger"
	"insightmart/internal/platform/store"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed pg/*.sql
var pgFiles embed.FS

//go:embed ch/*.sql
var chFiles embed.FS

// migrateLog adapts zerolog to migrate.Logger
type migrateLog struct{ l *logger.Logger }

func (m migrateLog) Printf(format string, v ...any) {
	m.l.Debug().Msgf(strings.TrimRight(format, "\n"), v...)
}

func (m migrateLog) Verbose() bool { return false }

// MigrateURL rewrites a postgres DSN onto the pgx v5 migrate driver
func MigrateURL(dsn string) (string, error) {
	for _, p := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, p) {
			return "pgx5://" + strings.TrimPrefix(dsn, p), nil
		}
	}
	if strings.HasPrefix(dsn, "pgx5://") {
		return dsn, nil
	}
	return "", perr.InvalidArgf("schema: unsupported postgres url scheme")
}

// UpPG applies every pending warehouse migration. No pending migration is not an error
func UpPG(dsn string) error {
	url, err := MigrateURL(dsn)
	if err != nil {
		return err
	}
	src, err := iofs.New(pgFiles, "pg")
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "schema: embedded migrations")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "schema: open migrator")
	}
	defer m.Close()
	m.Log = migrateLog{l: logger.Named("schema")}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return perr.Wrap(err, perr.ErrorCodeDB, "schema: migrate up")
	}
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return perr.Wrap(err, perr.ErrorCodeDB, "schema: read version")
	}
	logger.Named("schema").Info().Uint("version", v).Bool("dirty", dirty).Msg("warehouse schema up to date")
	return nil
}

// Statements returns the sink DDL in file order, one statement per entry
func Statements() ([]string, error) {
	names, err := fs.Glob(chFiles, "ch/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	var out []string
	for _, n := range names {
		b, err := chFiles.ReadFile(n)
		if err != nil {
			return nil, err
		}
		for _, stmt := range strings.Split(string(b), ";") {
			if s := strings.TrimSpace(stmt); s != "" {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// UpCH creates the stream sink tables. Every statement is IF NOT EXISTS
func UpCH(ctx context.Context, ch store.Clickhouse) error {
	stmts, err := Statements()
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "schema: embedded ddl")
	}
	for _, s := range stmts {
		if err := ch.Exec(ctx, s); err != nil {
			return perr.Wrap(err, perr.ErrorCodeDB, "schema: clickhouse ddl")
		}
	}
	logger.Named("schema").Info().Int("statements", len(stmts)).Msg("sink schema up to date")
	return nil
}
