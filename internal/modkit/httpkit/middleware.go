package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"insightmart/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	CORS        middleware.CORSOptions
	Timeout     time.Duration
	SlowRequest time.Duration
}

// CommonStack returns the baseline middleware slice for an API binary
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return []func(http.Handler) http.Handler{
		// correlation
		middleware.RequestID(),
		middleware.RealIP(),

		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLogZerolog(middleware.AccessLogOptions{Slow: o.SlowRequest}),

		middleware.CORS(o.CORS),
		middleware.Compress(flate.BestSpeed),
		middleware.Heartbeat("/health"),
		middleware.StripSlashes(),
		middleware.Timeout(timeout),
	}
}
