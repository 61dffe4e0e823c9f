package validators

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
)

// ParseUUIDParam reads a path parameter that must be a UUID.
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeInvalidParam, "missing path parameter").WithDetails(map[string]any{"field": name})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeInvalidParam, err, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

// ParseTimestamp parses an RFC3339 timestamp into UTC.
func ParseTimestamp(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "missing or invalid fields").WithDetails(map[string]string{field: "is required"})
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeInvalidFormat, err, "timestamp must be RFC3339").WithDetails(map[string]any{"field": field})
	}
	return at.UTC(), nil
}
