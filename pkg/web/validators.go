package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
)

// ParamValidator is a function type that validates a query parameter value.
type ParamValidator func(value string) bool

// oneOf returns a ParamValidator that accepts only the listed values.
func oneOf(allowed ...string) ParamValidator {
	return func(value string) bool {
		return slices.Contains(allowed, value)
	}
}

// ParseEnum reads an optional query parameter that must be one of allowed.
// A missing parameter yields def.
func ParseEnum(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key, def string, allowed ...string) (string, bool) {
	return parseValidate(r, w, logger, key, def, oneOf(allowed...))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key, def string, pValidator ParamValidator) (string, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	if !pValidator(value) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s value: %s", key, value))
		return "", false
	}
	return value, true
}
