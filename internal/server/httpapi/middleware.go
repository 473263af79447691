package httpapi

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

const requestIDHeader = "X-Request-Id"

// statusRecorder captures the status code written by a handler so the
// request log can report it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rec *statusRecorder) WriteHeader(code int) {
	if !rec.written {
		rec.status = code
		rec.written = true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if !rec.written {
		rec.status = http.StatusOK
		rec.written = true
	}
	return rec.ResponseWriter.Write(b)
}

// requestIDMiddleware assigns every request a random id and echoes it in the
// response so log lines and client reports can be correlated.
func requestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				if generated, err := common.MakeRandHexString(8); err == nil {
					id = generated
				}
			}
			if id != "" {
				r.Header.Set(requestIDHeader, id)
				w.Header().Set(requestIDHeader, id)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware emits one structured line per request with method, path,
// status and duration. Client errors log at warn, server errors at error.
func loggingMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond),
			}
			if id := r.Header.Get(requestIDHeader); id != "" {
				args = append(args, "request_id", id)
			}

			switch {
			case rec.status >= http.StatusInternalServerError:
				logger.Error(r.Context(), "http request", args...)
			case rec.status >= http.StatusBadRequest:
				logger.Warn(r.Context(), "http request", args...)
			default:
				logger.Info(r.Context(), "http request", args...)
			}
		})
	}
}

// recoveryMiddleware turns a handler panic into a 500 response instead of
// tearing down the process.
func recoveryMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(r.Context(), "panic recovered",
						"panic", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					writeResponse(w, http.StatusInternalServerError, "Internal server error: internal error", nil)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
