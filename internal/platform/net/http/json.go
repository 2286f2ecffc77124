package http

import "net/http"

// JSONHandlerNoBody wraps a (value, error) handler in the envelope
func JSONHandlerNoBody(fn func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		if resp, ok := out.(Response); ok {
			return resp
		}
		return OK(out)
	})
}

// GetJSON mounts fn for GET
func GetJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, JSONHandlerNoBody(fn))
}

// PostJSON mounts fn for POST; fn reads its own body
func PostJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Post(path, JSONHandlerNoBody(fn))
}
