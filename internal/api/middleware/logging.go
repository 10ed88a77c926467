package middleware

import (
	"net/http"
	"time"
)

type Logger interface {
	Info(format string, v ...interface{})
}

// AccessLog пишет строку лога на каждый обработанный запрос
func AccessLog(logger Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			logger.Info("%s %s - status=%d, duration_ms=%d",
				r.Method, r.URL.Path, rec.Status(), time.Since(start).Milliseconds())
		})
	}
}
