// Package logger wraps zerolog with process-wide defaults and context helpers
package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"insightmart/internal/platform/config/raw"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger is the logging type used across the project
type Logger = zerolog.Logger

// Options configures the root logger
type Options struct {
	Level     string
	Format    string // console | json
	Service   string
	Component string
	Writer    io.Writer
	Caller    bool
	Static    map[string]string
}

// FromEnv reads LOG_* through the raw env view so config can import us
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:     strings.ToLower(rc.Get("LEVEL", "info")),
		Format:    strings.ToLower(rc.Get("FORMAT", "console")),
		Service:   rc.Get("SERVICE", ""),
		Component: rc.Get("COMPONENT", ""),
		Caller:    rc.GetBool("CALLER", false),
	}
}

var (
	once  sync.Once
	root  atomic.Pointer[zerolog.Logger]
	ready atomic.Bool
)

// Get returns the root logger, building it from env on first use
func Get() *Logger {
	if !ready.Load() {
		Init(FromEnv())
	}
	return root.Load()
}

// Init builds the root logger. Only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if opt.Writer != nil {
			w = opt.Writer
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}

		lc := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			lc = lc.Str("go_version", bi.GoVersion)
		}
		if opt.Service != "" {
			lc = lc.Str("service", opt.Service)
		}
		if opt.Component != "" {
			lc = lc.Str("component", opt.Component)
		}
		for k, v := range opt.Static {
			lc = lc.Str(k, v)
		}
		l := lc.Logger()
		if opt.Caller {
			l = l.With().Caller().Logger()
		}
		root.Store(&l)
		ready.Store(true)
	})
}

// ParseLevel maps a level name onto zerolog, defaulting to info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

type ctxKey struct{ name string }

var (
	keyRequestID = ctxKey{"request_id"}
	keyRunID     = ctxKey{"run_id"}
)

// WithRequest stores a request id for C to pick up
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, reqID)
}

// WithRun stores a pipeline run id for C to pick up
func WithRun(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRunID, runID)
}

// C returns a child of the root logger carrying request_id and run_id from ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	if s, ok := ctx.Value(keyRequestID).(string); ok && s != "" {
		b = b.Str("request_id", s)
	}
	if s, ok := ctx.Value(keyRunID).(string); ok && s != "" {
		b = b.Str("run_id", s)
	}
	l := b.Logger()
	return &l
}

// Named returns a child logger tagged with a component
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}
