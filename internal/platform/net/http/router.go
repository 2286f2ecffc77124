package http

import "net/http"

// Handler is the handler shape used across the project
type Handler = func(http.ResponseWriter, *http.Request)

// Router is the mount surface modules see; chi stays behind it
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)

	Handle(path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Group(fn func(Router))
	Route(pattern string, fn func(Router))

	Mux() http.Handler
}
