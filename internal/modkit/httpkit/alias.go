// Package httpkit re-exports the platform http seam for modules
// so they do not import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "insightmart/internal/platform/net/http"
)

type (
	// Envelope is the transport envelope type
	Envelope = phttp.Envelope

	// Page is the pagination metadata type
	Page = phttp.Page

	// Response is the HTTP response type
	Response = phttp.Response

	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is a re-export of the platform router seam
	Router = phttp.Router
)

// OK returns a 200 response
func OK(data any) Response { return phttp.OK(data) }

// Accepted returns a 202 response
func Accepted(data any) Response { return phttp.Accepted(data) }

// Error maps err to its status and envelope
func Error(err error) Response { return phttp.Error(err) }

// List returns a 200 response with items and page metadata
func List(items any, limit, count int, cursor string) Response {
	return phttp.List(items, limit, count, cursor)
}

// Call adapts a (value, error) handler; a returned Response is written as is
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.JSONHandlerNoBody(fn)
}

// Handle adapts a Response-returning function
func Handle(fn func(*http.Request) Response) Handler {
	return phttp.Handle(fn)
}

// Get registers fn under GET
func Get(r Router, path string, fn func(*http.Request) (any, error)) { phttp.GetJSON(r, path, fn) }

// Post registers fn under POST
func Post(r Router, path string, fn func(*http.Request) (any, error)) { phttp.PostJSON(r, path, fn) }

// Param returns a chi path parameter
func Param(r *http.Request, key string) string { return phttp.URLParam(r, key) }
