package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openhrm/hrm/internal/platform/validation"
)

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields.
// Failures come back as validation.Errors so FromError renders them as 400.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return validation.Errors{{Field: "body", Reason: "request body is required"}}
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return validation.Errors{{Field: "body", Reason: "request body too large"}}
		}
		return validation.Errors{{Field: "body", Reason: "invalid json: " + err.Error()}}
	}
	return nil
}

// URLID returns the chi path parameter name as a canonical UUID string.
func URLID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", validation.Errors{{Field: name, Reason: "must be a valid uuid"}}
	}
	return parsed.String(), nil
}

// OptionalUUID validates an optional identifier, recording an issue on v.
func OptionalUUID(v *validation.Validator, field, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		v.Add(field, "must be a valid uuid")
		return ""
	}
	return parsed.String()
}

// RequiredUUID is OptionalUUID that also rejects blanks.
func RequiredUUID(v *validation.Validator, field, raw string) string {
	if strings.TrimSpace(raw) == "" {
		v.Add(field, "is required")
		return ""
	}
	return OptionalUUID(v, field, raw)
}

// Date parses raw as a date and records an issue on failure. Blank input is
// left to the caller's Required checks.
func Date(v *validation.Validator, field, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}
	}
	return parsed
}
