package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/openhrm/hrm/internal/requestctx"
	"github.com/openhrm/hrm/internal/transport/http/api"
	"github.com/openhrm/hrm/internal/transport/http/shared"
)

// KeyFunc picks the bucket a request counts against.
type KeyFunc func(r *http.Request) string

// Limiter is a fixed-window counter per key. Expired buckets are dropped on a
// sweep so the map does not grow with every client ever seen.
type Limiter struct {
	limit  int
	window time.Duration
	key    KeyFunc
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*window
	lastSweep time.Time
}

type window struct {
	count int
	reset time.Time
}

func NewLimiter(limit int, period time.Duration, key KeyFunc) *Limiter {
	if key == nil {
		key = ActorKey
	}
	return &Limiter{
		limit:   limit,
		window:  period,
		key:     key,
		now:     time.Now,
		buckets: map[string]*window{},
	}
}

type decision struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func (l *Limiter) take(key string) decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.window {
		for k, b := range l.buckets {
			if !now.Before(b.reset) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.reset) {
		b = &window{reset: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++
	return decision{
		allowed:   b.count <= l.limit,
		remaining: max(l.limit-b.count, 0),
		resetIn:   b.reset.Sub(now),
	}
}

// Allow counts r against its bucket and writes the rate limit headers. On
// rejection it also writes the 429 envelope and returns false.
func (l *Limiter) Allow(w http.ResponseWriter, r *http.Request) bool {
	if l.limit <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = "ip:" + shared.ClientIP(r)
	}
	d := l.take(key)

	resetSec := ceilSeconds(d.resetIn)
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
	if d.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
	slog.Warn("rate limit exceeded", append(requestctx.LogAttrs(r.Context()),
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", l.limit,
	)...)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(w, r) {
			next.ServeHTTP(w, r)
		}
	})
}

// RateLimit limits every request by the authenticated user, or the client IP
// for anonymous callers.
func RateLimit(limit int, period time.Duration) func(http.Handler) http.Handler {
	return NewLimiter(limit, period, ActorKey).Middleware
}

// ActorKey buckets by authenticated user and falls back to client IP.
func ActorKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return IPKey(r)
}

func IPKey(r *http.Request) string {
	return "ip:" + shared.ClientIP(r)
}

// LoginEmailKey buckets login attempts by the submitted email so one account
// cannot be brute forced from many addresses. The body is restored for the
// handler.
func LoginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return IPKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 16<<10))
	r.Body = io.NopCloser(strings.NewReader(string(raw)))
	if err != nil {
		return IPKey(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return IPKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}

type rateScope int

const (
	scopeNone rateScope = iota
	scopeLogin
	scopePayrollAction
)

// sensitiveRoutes lists mutations that get tighter limits. Paths are relative
// to the API version prefix; "*" matches one path segment.
var sensitiveRoutes = []struct {
	pattern string
	scope   rateScope
}{
	{"/auth/login", scopeLogin},
	{"/payroll/calculate", scopePayrollAction},
	{"/payroll/periods/*/process", scopePayrollAction},
	{"/payroll/periods/*/approve", scopePayrollAction},
	{"/payroll/periods/*/pay", scopePayrollAction},
	{"/payroll/periods/*/cancel", scopePayrollAction},
}

func routeScope(r *http.Request) rateScope {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return scopeNone
	}
	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api"), "/v1")
	for _, route := range sensitiveRoutes {
		if matchSegments(route.pattern, path) {
			return route.scope
		}
	}
	return scopeNone
}

func matchSegments(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
	}
	return true
}

// SensitiveMutationRateLimit applies a quarter of baseLimit to login attempts,
// counted both per IP and per email, and half of it per user to payroll
// calculation and period transitions. Other requests pass untouched.
func SensitiveMutationRateLimit(baseLimit int, period time.Duration) func(http.Handler) http.Handler {
	loginLimit := max(baseLimit/4, 1)
	loginByIP := NewLimiter(loginLimit, period, IPKey)
	loginByEmail := NewLimiter(loginLimit, period, LoginEmailKey)
	payrollByActor := NewLimiter(max(baseLimit/2, 1), period, ActorKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch routeScope(r) {
			case scopeLogin:
				if !loginByIP.Allow(w, r) || !loginByEmail.Allow(w, r) {
					return
				}
			case scopePayrollAction:
				if !payrollByActor.Allow(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
