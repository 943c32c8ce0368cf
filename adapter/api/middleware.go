package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/quadra/pkg/observability"
)

type middleware func(http.Handler) http.Handler

// chain applies middlewares so the first one listed runs outermost.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// requestContext attaches request and correlation ids, reusing the ones the
// caller sent, and echoes them back.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.NewRequestContext(r.Context(),
			r.Header.Get(observability.RequestIDHeader),
			r.Header.Get(observability.CorrelationIDHeader),
		)

		w.Header().Set(observability.RequestIDHeader, observability.RequestIDFromContext(ctx))
		w.Header().Set(observability.CorrelationIDHeader, observability.CorrelationIDFromContext(ctx))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// accessLog writes one log line per request and records request metrics.
func accessLog(logger *slog.Logger, metrics observability.Metrics) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			tags := []observability.Tag{
				observability.T("route", route),
				observability.T(observability.StatusKey, strconv.Itoa(rec.status)),
			}
			metrics.Counter(observability.MetricHTTPRequests, 1, tags...)
			metrics.Timing(observability.MetricHTTPDuration, duration, tags...)
			if rec.status >= http.StatusInternalServerError {
				metrics.Counter(observability.MetricHTTPErrors, 1, tags...)
			}

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				observability.StatusKey, rec.status,
				observability.DurationKey, duration.Milliseconds(),
			)
		})
	}
}

// recoverer turns a panic into a 500 response.
func recoverer(logger *slog.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					if rv == http.ErrAbortHandler {
						panic(rv)
					}
					logger.ErrorContext(r.Context(), "panic serving request",
						"path", r.URL.Path,
						"panic", rv,
					)
					writeError(w, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
