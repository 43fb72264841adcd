package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/angelmondragon/servicedesk-backend/api/responses"
	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// Recoverer answers a handler panic with the INTERNAL_ERROR envelope. The
// error log line carries the stack.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				cause := fmt.Errorf("panic in %s %s: %v", r.Method, r.URL.Path, v)
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, cause, "panic recovered"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
