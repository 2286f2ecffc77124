// Package ch is the ClickHouse client used by the stream sink
package ch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"insightmart/internal/platform/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Config configures the connection
type Config struct {
	URL        string
	ClientName string
	ClientTag  string
	LogSQL     bool
	Log        logger.Logger
}

// Batch is the part of driver.Batch Insert needs
type Batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// Rows is a ClickHouse result set
type Rows = driver.Rows

type conn interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// CH wraps a native protocol connection
type CH struct {
	conn    conn
	prepare func(ctx context.Context, query string) (Batch, error)
	log     *logger.Logger
}

var dial = clickhouse.Open

// Open parses the DSN, dials and pings
func Open(ctx context.Context, cfg Config) (*CH, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("clickhouse parse dsn: %w", err)
	}
	opts.ClientInfo = BuildClientInfo(cfg.ClientName, cfg.ClientTag)
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}

	c, err := dial(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return New(c, cfg), nil
}

// New wraps an open driver connection
func New(c driver.Conn, cfg Config) *CH {
	out := &CH{
		conn: c,
		prepare: func(ctx context.Context, q string) (Batch, error) {
			return c.PrepareBatch(ctx, q)
		},
	}
	if cfg.LogSQL {
		l := cfg.Log.With().Str("component", "ch").Logger()
		out.log = &l
	}
	return out
}

// Insert appends rows to table in one batch; a failed batch is aborted
func (c *CH) Insert(ctx context.Context, table string, columns []string, rows [][]any) (err error) {
	if len(rows) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", "))
	start := time.Now()
	defer func() { c.trace(q, len(rows), start, err) }()

	b, err := c.prepare(ctx, q)
	if err != nil {
		return fmt.Errorf("clickhouse prepare batch: %w", err)
	}
	sent := false
	defer func() {
		if !sent {
			_ = b.Abort()
		}
	}()

	for i, r := range rows {
		if len(r) != len(columns) {
			return fmt.Errorf("clickhouse append %s row %d: %d values for %d columns", table, i, len(r), len(columns))
		}
		if err := b.Append(r...); err != nil {
			return fmt.Errorf("clickhouse append %s row %d: %w", table, i, err)
		}
	}
	if err := b.Send(); err != nil {
		return fmt.Errorf("clickhouse send batch: %w", err)
	}
	sent = true
	return nil
}

// Query runs a select
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	r, err := c.conn.Query(ctx, sql, args...)
	c.trace(sql, 0, start, err)
	return r, err
}

// Exec runs DDL and other statements without results
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	start := time.Now()
	err := c.conn.Exec(ctx, sql, args...)
	c.trace(sql, 0, start, err)
	return err
}

// Ping checks the server answers
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes the connection
func (c *CH) Close() error { return c.conn.Close() }

func (c *CH) trace(sql string, rows int, start time.Time, err error) {
	if c.log == nil {
		return
	}
	e := c.log.Info()
	if err != nil {
		e = c.log.Error().Err(err)
	}
	e.Str("sql", strings.Join(strings.Fields(sql), " ")).
		Int("rows", rows).
		Dur("elapsed", time.Since(start)).
		Msg("ch query")
}
