// Package module wires up the build service as a modkit.Module
package module

import (
	"insightmart/internal/modkit"
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/logger"
	phttp "insightmart/internal/platform/net/http"

	"insightmart/internal/services/build/domain"
	"insightmart/internal/services/build/guardrails"
	"insightmart/internal/services/build/repo"
	"insightmart/internal/services/build/service"
)

// Ports exported by the build module
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements modkit.Module for the batch build
type Module struct {
	deps  modkit.Deps
	opts  Options
	ports Ports
}

// New constructs and wires the build module using deps.Cfg. Bad configuration panics
func New(deps modkit.Deps) *Module {
	opts, err := FromConfig(deps.Cfg)
	if err != nil {
		logger.Get().Panic().Err(err).Msg("build: invalid configuration")
	}
	cfg, err := opts.Service()
	if err != nil {
		logger.Get().Panic().Err(err).Msg("build: invalid rule configuration")
	}

	db := deps.RequirePG("build")

	var source domain.Source = repo.NewPGSource(db)
	if opts.Source == SourceSnowflake {
		source = repo.NewSnowflakeSource(opts.Snowflake)
	}

	var lease repokit.BeginHook
	if opts.EnableLeases {
		lease = guardrails.MakeAdvisoryLease(opts.LeaseKey)
	}

	svc := service.New(db, repo.NewPG(), source, cfg, lease)

	m := &Module{deps: deps, opts: opts}
	m.ports = Ports{Runner: svc}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "build" }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// MountRoutes is a no-op: the build has no HTTP routes
func (m *Module) MountRoutes(_ phttp.Router) {}
