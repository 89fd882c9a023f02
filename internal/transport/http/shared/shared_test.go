package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhrm/hrm/internal/platform/validation"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2024-01-31T10:15:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "x", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	err := DecodeJSON(req, &dst)
	issues, ok := validation.As(err)
	require.True(t, ok)
	assert.Equal(t, "body", issues[0].Field)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	_, ok = validation.As(DecodeJSON(req, &dst))
	assert.True(t, ok)
}

func TestURLID(t *testing.T) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "6F9619FF-8B86-D011-B42D-00C04FC964FF")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	id, err := URLID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", id)

	rctx.URLParams = chi.RouteParams{}
	rctx.URLParams.Add("id", "42")
	_, err = URLID(req, "id")
	_, ok := validation.As(err)
	assert.True(t, ok)
}

func TestUUIDHelpers(t *testing.T) {
	v := validation.New()
	assert.Empty(t, OptionalUUID(v, "employee_id", ""))
	assert.False(t, v.HasIssues())
	RequiredUUID(v, "period_id", "")
	OptionalUUID(v, "employee_id", "bad")
	issues, ok := validation.As(v.Err())
	require.True(t, ok)
	assert.Len(t, issues, 2)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&offset=20", nil)
	p := ParsePagination(req, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 20}, p)

	req = httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil)
	assert.Equal(t, Pagination{Limit: 50, Offset: 0}, ParsePagination(req, 50, 200))

	meta := Pagination{Limit: 10, Offset: 30}.Meta(95)
	assert.Equal(t, 95, meta.Total)
	assert.Equal(t, 10, meta.Limit)
	assert.Equal(t, 30, meta.Offset)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:1234"
	assert.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
