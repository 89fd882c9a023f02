package middleware

import "net/http"

const (
	// APIContentSecurityPolicy suits JSON and file download responses.
	APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	// AppContentSecurityPolicy lets the bundled single-page client load its own assets.
	AppContentSecurityPolicy = "default-src 'self'; base-uri 'self'; form-action 'self'; frame-ancestors 'none'; object-src 'none'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self'"
)

type HeaderPolicy struct {
	// HSTS is only worth sending when the service sits behind TLS.
	HSTS                  bool
	ContentSecurityPolicy string
}

func SecureHeaders(policy HeaderPolicy) func(http.Handler) http.Handler {
	csp := policy.ContentSecurityPolicy
	if csp == "" {
		csp = APIContentSecurityPolicy
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("X-Frame-Options", "DENY")
			headers.Set("Referrer-Policy", "no-referrer")
			headers.Set("Content-Security-Policy", csp)
			headers.Set("Cross-Origin-Resource-Policy", "same-origin")
			if policy.HSTS {
				headers.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}
			// Payslips and registers carry salary data.
			headers.Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
