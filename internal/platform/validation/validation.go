// Package validation collects field-level input problems so domain services can
// reject a request with every issue at once instead of the first one found.
package validation

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Errors is returned by domain services when input is rejected.
type Errors []Issue

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, issue := range e {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// As reports whether err carries validation issues and returns them.
func As(err error) (Errors, bool) {
	var out Errors
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}

type Validator struct {
	issues []Issue
}

func New() *Validator {
	return &Validator{issues: make([]Issue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, Issue{Field: strings.TrimSpace(field), Reason: reason})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "is required")
	}
}

func (v *Validator) RequiredDate(field string, value time.Time) {
	if value.IsZero() {
		v.Add(field, "is required")
	}
}

func (v *Validator) Enum(field, value string, allowed ...string) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range allowed {
		if normalized == candidate {
			return
		}
	}
	v.Add(field, "must be one of "+strings.Join(allowed, ", "))
}

func (v *Validator) NonNegative(field string, value decimal.Decimal) {
	if value.IsNegative() {
		v.Add(field, "must not be negative")
	}
}

func (v *Validator) Between(field string, value, lo, hi decimal.Decimal) {
	if value.LessThan(lo) || value.GreaterThan(hi) {
		v.Add(field, "must be between "+lo.String()+" and "+hi.String())
	}
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() {
		return
	}
	if end.Before(start) {
		v.Add(endField, "must be on or after "+startField)
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

// Err returns the collected issues sorted by field, or nil when there are none.
func (v *Validator) Err() error {
	if !v.HasIssues() {
		return nil
	}
	out := make(Errors, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}
