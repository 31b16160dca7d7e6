package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Logger writes one access log line per request. Server errors log at
// error level and client errors at warn.
func Logger(l *slog.Logger) func(http.Handler) http.Handler {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}

			t1 := time.Now()
			defer func() {
				logstr := fmt.Sprintf("HTTP Request Completed %s %s://%s%s %s - %d %dB in %s",
					r.Method,
					scheme,
					r.Host,
					r.URL.Path,
					r.Proto,
					ww.Status(),
					ww.BytesWritten(),
					time.Since(t1),
				)
				attrs := []any{
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("proto", r.Proto),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(t1)),
				}

				switch {
				case ww.Status() >= 500:
					l.ErrorContext(r.Context(), logstr, attrs...)
				case ww.Status() >= 400:
					l.WarnContext(r.Context(), logstr, attrs...)
				default:
					l.InfoContext(r.Context(), logstr, attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
