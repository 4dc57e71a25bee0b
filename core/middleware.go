package core

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

const bearerPrefix = "Bearer "

// BearerAuth extracts a bearer token from the Authorization header and, when
// it resolves, attaches the Principal to the request context. It never aborts:
// a missing header, an invalid token, or any resolution failure leaves the
// request anonymous and hands control onward. Rejection of unauthenticated
// access to protected routes belongs to RequireAuth / RequireRole.
func BearerAuth(auth AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		if token == "" {
			c.Next()
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			// Fail open: a broken or stale token must not take down
			// unrelated routes. Log so validator bugs stay visible.
			log.Printf("bearer auth: request left anonymous: %v", err)
			c.Next()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// CurrentPrincipal returns the principal attached by BearerAuth, if any.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// RequireAuth rejects anonymous requests with a fixed plaintext 401 body.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentPrincipal(c); !ok {
			c.String(http.StatusUnauthorized, "Unauthorized.")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose principal lacks the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.String(http.StatusUnauthorized, "Unauthorized.")
			c.Abort()
			return
		}
		if !p.HasRole(role) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OriginMiddleware validates Origin/Referer against the allowed list and sets
// CORS headers. The API is bearer-token based, so no credentials are allowed.
func OriginMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if len(allowed) == 0 {
			return false
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
}
