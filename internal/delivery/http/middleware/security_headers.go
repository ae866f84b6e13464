package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware adds essential security headers to all responses.
// The swagger UI needs inline scripts, so its CSP is relaxed.
func SecurityHeadersMiddleware(hsts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hsts {
			c.Header("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

		scriptSrc := "script-src 'self'; "
		if strings.HasPrefix(c.Request.URL.Path, "/v1/swagger/") {
			scriptSrc = "script-src 'self' 'unsafe-inline'; "
		}
		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				scriptSrc+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"frame-ancestors 'none'; "+
				"base-uri 'self'; "+
				"form-action 'self'")

		// Form state is per visitor; never cache it.
		c.Header("Cache-Control", "no-store")

		c.Next()
	}
}
