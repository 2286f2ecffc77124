package pg

import (
	"context"
	"strings"

	"insightmart/internal/platform/logger"

	"github.com/rs/zerolog"
)

// QueryEvent describes one finished statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives QueryEvents
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement regardless of the root level; slow ones at warn
func Tracer(root logger.Logger) QueryTracer {
	return &zlTracer{log: root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type zlTracer struct{ log logger.Logger }

func (z *zlTracer) OnQuery(_ context.Context, ev QueryEvent) {
	e := z.log.Info()
	if ev.Slow {
		e = z.log.Warn()
	}
	if ev.Err != nil {
		e = z.log.Error().Err(ev.Err)
	}
	e.Float64("elapsed_ms", float64(ev.ElapsedUS)/1000).
		Bool("slow", ev.Slow).
		Str("sql", squash(ev.SQL)).
		Interface("args", ev.Args).
		Msg("pg query")
}

// squash folds runs of whitespace so multi-line SQL fits on one log line
func squash(s string) string { return strings.Join(strings.Fields(s), " ") }
