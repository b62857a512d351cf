package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tankyu/diary/internal/logger"
)

// requestLogger logs one line per request, at warn for 4xx and error for
// 5xx responses.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				kv := []any{
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes_out", ww.BytesWritten(),
					"latency", time.Since(start),
				}
				switch {
				case ww.Status() >= 500:
					log.Error("request completed", kv...)
				case ww.Status() >= 400:
					log.Warn("request completed", kv...)
				default:
					log.Info("request completed", kv...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
