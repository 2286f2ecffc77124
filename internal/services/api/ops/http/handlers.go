// Package http provides http transport for the ops API
package http

import (
	stdhttp "net/http"

	"insightmart/internal/modkit/httpkit"
	"insightmart/internal/platform/net/http/bind"
	"insightmart/internal/services/api/ops/domain"
)

// Register mounts ops endpoints on the given router
func Register(r httpkit.Router, s domain.ServicePort) {
	h := &handlers{svc: s}

	// run log
	httpkit.Get(r, "/runs", h.runs)
	httpkit.Get(r, "/runs/{id}", h.run)
	httpkit.Get(r, "/runs/{id}/validation", h.validation)

	// high-water marks
	httpkit.Get(r, "/cursors", h.cursors)

	// stream records that failed evaluation
	httpkit.Get(r, "/rejects", h.rejects)
}

type handlers struct{ svc domain.ServicePort }

// GET /ops/runs?kind=&status=&limit=
func (h *handlers) runs(r *stdhttp.Request) (any, error) {
	in, err := bind.Query(r, domain.RunsInput{Limit: domain.DefaultLimit})
	if err != nil {
		return nil, err
	}
	rows, err := h.svc.Runs(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.List(rows, in.Limit, len(rows), ""), nil
}

// GET /ops/runs/{id}
func (h *handlers) run(r *stdhttp.Request) (any, error) {
	return h.svc.Run(r.Context(), httpkit.Param(r, "id"))
}

// GET /ops/runs/{id}/validation
func (h *handlers) validation(r *stdhttp.Request) (any, error) {
	return h.svc.Validation(r.Context(), httpkit.Param(r, "id"))
}

// GET /ops/cursors
func (h *handlers) cursors(r *stdhttp.Request) (any, error) {
	return h.svc.Cursors(r.Context())
}

// GET /ops/rejects?source=&limit=
func (h *handlers) rejects(r *stdhttp.Request) (any, error) {
	in, err := bind.Query(r, domain.RejectsInput{Limit: domain.DefaultLimit})
	if err != nil {
		return nil, err
	}
	rows, err := h.svc.Rejects(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.List(rows, in.Limit, len(rows), ""), nil
}
