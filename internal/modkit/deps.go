// Package modkit provides module wiring and core deps
package modkit

import (
	"insightmart/internal/modkit/repokit"
	"insightmart/internal/platform/config"
	"insightmart/internal/platform/logger"
	"insightmart/internal/platform/store"
)

// Deps holds core dependencies passed to modules
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
}

// RequirePG panics when the warehouse was not opened; name shows up in the message
func (d Deps) RequirePG(name string) repokit.TxRunner {
	if d.PG == nil {
		panic(name + ": postgres is required but disabled")
	}
	return d.PG
}

// RequireCH panics when the stream sink was not opened
func (d Deps) RequireCH(name string) store.Clickhouse {
	if d.CH == nil {
		panic(name + ": clickhouse is required but disabled")
	}
	return d.CH
}
