package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

type loggerKey struct{}

// TraceLog returns middleware that puts a request-scoped logger on the
// context, annotated with the request id and, when tracing is active, the
// trace and span ids.
func TraceLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				l = l.With("request_id", reqID)
			}
			if sc := trace.SpanFromContext(r.Context()).SpanContext(); sc.IsValid() {
				l = l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
			}
			ctx := context.WithValue(r.Context(), loggerKey{}, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Logger returns the request-scoped logger, or the default logger.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
