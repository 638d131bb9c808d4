package http

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/sagarc03/mayray"
)

// Recovery wraps next so that a panicking handler produces a 500 response
// instead of taking down the worker.
func Recovery(logger *slog.Logger) func(mayray.Handler) mayray.Handler {
	return func(next mayray.Handler) mayray.Handler {
		return mayray.HandlerFunc(func(req *mayray.Request) (response []byte) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						"resource", req.Resource,
						"panic", fmt.Sprint(r),
						"stack", string(debug.Stack()))
					response = ServerError("Internal server error")
				}
			}()
			return next.Respond(req)
		})
	}
}

// HeadSupport answers HEAD requests with the headers next produces for GET.
// The body is dropped, Content-Length is kept.
func HeadSupport(next mayray.Handler) mayray.Handler {
	return mayray.HandlerFunc(func(req *mayray.Request) []byte {
		if req.Method != mayray.MethodHead {
			return next.Respond(req)
		}
		get := mayray.NewRequest(req.Context(), mayray.MethodGet, req.Resource, req.Version, req.Headers(), nil)
		return Head(next.Respond(get))
	})
}
