// Package module wires the ops API using modkit
package module

import (
	"net/http"

	"insightmart/internal/modkit"
	"insightmart/internal/modkit/httpkit"
	str "insightmart/internal/platform/strings"
	opshttp "insightmart/internal/services/api/ops/http"
	opsrepo "insightmart/internal/services/api/ops/repo"
	opssvc "insightmart/internal/services/api/ops/service"
)

// Module implements the ops module
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws   []func(http.Handler) http.Handler
	ports Ports

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)
}

// New constructs the ops module
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("ops"), modkit.WithPrefix("/ops")}, opts...)...)

	svc := opssvc.New(deps.RequirePG("ops"), opsrepo.NewPG())

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		subrouter: b.Subrouter,
		ports:     Ports{Service: svc},
	}

	external := b.Register
	m.register = func(r httpkit.Router) {
		opshttp.Register(r, svc)
		external(r)
	}
	return m
}

// MountRoutes mounts the module routes on the given router
func (m *Module) MountRoutes(r httpkit.Router) {
	httpkit.MountUnder(r, m.Prefix(), m.mws, func(rr httpkit.Router) {
		m.register(m.subrouter(rr))
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.name }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }
