package middleware

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// wrap returns w as a chi WrapResponseWriter, reusing an existing wrapper.
func wrap(w http.ResponseWriter, r *http.Request) chimiddleware.WrapResponseWriter {
	if ww, ok := w.(chimiddleware.WrapResponseWriter); ok {
		return ww
	}
	return chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
}

// status returns the recorded status; handlers that never call WriteHeader
// answer 200.
func status(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

// Logger logs each request once it completes and puts a request-scoped logger
// in the context for zerolog.Ctx.
//
// Server errors log at error, client errors at warn. The ops checks and the
// event stream log at debug: the renderer polls the former and holds the
// latter open for the whole session.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w, r)

			reqLog := log.With().Str("request_id", GetRequestID(r.Context())).Logger()
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				reqLog = reqLog.With().Str("trace_id", sc.TraceID().String()).Logger()
			}

			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

			code := status(ww)
			reqLog.WithLevel(requestLevel(r.URL.Path, code)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", routePattern(r)).
				Int("status", code).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request completed")
		})
	}
}

func requestLevel(path string, code int) zerolog.Level {
	switch {
	case code >= http.StatusInternalServerError:
		return zerolog.ErrorLevel
	case code >= http.StatusBadRequest:
		return zerolog.WarnLevel
	case strings.HasPrefix(path, "/v1/ops/"), strings.HasSuffix(path, "/events"):
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
