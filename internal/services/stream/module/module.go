// Package module wires up the stream ingest as a modkit.Module
package module

import (
	"insightmart/internal/modkit"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/logger"
	phttp "insightmart/internal/platform/net/http"

	"insightmart/internal/services/stream/domain"
	"insightmart/internal/services/stream/guardrails"
	"insightmart/internal/services/stream/repo"
	"insightmart/internal/services/stream/service"
)

// Ports exported by the stream module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module for the stream ingest
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs and wires the stream module using deps.Cfg. Bad configuration panics
func New(deps modkit.Deps) *Module {
	opts, err := FromConfig(deps.Cfg)
	if err != nil {
		logger.Get().Panic().Err(err).Msg("stream: invalid configuration")
	}
	cfg, err := opts.Service()
	if err != nil {
		logger.Get().Panic().Err(err).Msg("stream: invalid rule configuration")
	}

	var lease func(string) repokit.BeginHook
	if opts.EnableLeases {
		base := opts.LeaseBase
		lease = func(source string) repokit.BeginHook {
			return guardrails.MakeAdvisoryLease(guardrails.KeyFor(base, source))
		}
	}

	svc := service.New(
		deps.RequirePG("stream"),
		repo.NewHybrid(deps.RequireCH("stream")),
		cfg,
		lease,
	)

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "stream" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// MountRoutes is a no-op: the stream ingest has no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}
