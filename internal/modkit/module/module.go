// Package module holds the module contract and typed port lookup
package module

import (
	phttp "insightmart/internal/platform/net/http"
)

// Module is the contract the mains and the api mount rely on
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}
