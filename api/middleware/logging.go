package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// Logging emits request.start and request.complete with status and duration.
func Logging(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if logg == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := logg.WithFields(r.Context(), map[string]any{
				"method": r.Method,
				"path":   r.URL.Path,
			})
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			logg.Debug(ctx, "request.start")

			next.ServeHTTP(rec, r.WithContext(ctx))

			logg.Info(logg.WithFields(ctx, map[string]any{
				"status":      rec.statusCode(),
				"duration_ms": time.Since(start).Milliseconds(),
			}), "request.complete")
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) statusCode() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
