package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

const requestIDHeader = "X-Request-Id"

// RequestID keeps a sane caller supplied X-Request-Id, otherwise mints a UUID,
// echoes it back and tags the request logger with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if !usableRequestID(id) {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// usableRequestID accepts up to 128 printable ASCII characters.
func usableRequestID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
