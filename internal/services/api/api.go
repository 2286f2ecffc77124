// Package api provides the HTTP API for the mart
package api

import (
	"time"

	"insightmart/internal/platform/config"
	"insightmart/internal/platform/logger"
	"insightmart/internal/platform/net/middleware"
	phttp "insightmart/internal/platform/net/http"
	"insightmart/internal/platform/store"

	"insightmart/internal/modkit"
	"insightmart/internal/modkit/httpkit"
	"insightmart/internal/modkit/module"

	opsmod "insightmart/internal/services/api/ops/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
		PG:  opt.Store.PG,
		CH:  opt.Store.CH,
	}
	if opt.Logger != nil {
		deps.Log = *opt.Logger
	}

	mods := []module.Module{
		opsmod.New(deps),
	}

	stack := httpkit.CommonStack(httpkit.StackOptions{
		CORS: middleware.CORSOptions{
			AllowedOrigins: opt.Config.MayCSV("CORS_ORIGINS", nil),
		},
		Timeout:     opt.Config.MayDuration("TIMEOUT", 30*time.Second),
		SlowRequest: opt.Config.MayDuration("SLOW_REQUEST", time.Second),
	})

	// the stack sits on the root router so its /health heartbeat answers outside /api/v1
	r.Use(stack...)
	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, nil, func(api httpkit.Router) {
		for _, m := range mods {
			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
