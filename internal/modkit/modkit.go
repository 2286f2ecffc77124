package modkit

import (
	phttp "insightmart/internal/platform/net/http"
)

// Module is the surface API modules share: routes plus a port set for cross wiring
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Ports returns a module specific port set
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
