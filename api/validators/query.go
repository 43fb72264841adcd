package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/servicedesk-backend/pkg/errors"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryOptionalInt returns nil when key is absent.
func ParseQueryOptionalInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseQueryDate reads a YYYY-MM-DD value; end-of-day is applied when endOfDay is set.
func ParseQueryDate(r *http.Request, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a date (YYYY-MM-DD)").WithDetails(map[string]any{"field": key})
	}
	if endOfDay {
		value = value.Add(24*time.Hour - time.Nanosecond)
	}
	return &value, nil
}

// ParseIDParam reads a positive numeric chi URL parameter.
func ParseIDParam(r *http.Request, key string) (uint, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid %s", key).WithDetails(map[string]any{"field": key})
	}
	return uint(value), nil
}
