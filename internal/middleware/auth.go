package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medjourney/portal-api/internal/handler"
	"github.com/medjourney/portal-api/pkg/auth"
	"github.com/medjourney/portal-api/pkg/httputil"
)

type AuthMiddleware struct {
	jwtSvc  auth.JWTService
	revoked func(c *gin.Context, token string) (bool, error)
}

// NewAuthMiddleware builds the bearer-token middleware. revoked may be nil
// when revocation checks are not wanted (tests, workers).
func NewAuthMiddleware(jwtSvc auth.JWTService, revoked func(c *gin.Context, token string) (bool, error)) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, revoked: revoked}
}

// Authenticate validates the bearer token and stores the caller's claims
// in the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}
		token := parts[1]

		claims, err := m.jwtSvc.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		if m.revoked != nil {
			revoked, err := m.revoked(c, token)
			if err != nil || revoked {
				abortUnauthorized(c, "token revoked")
				return
			}
		}

		c.Set(handler.ContextClaimsKey, claims)
		c.Set(handler.ContextTokenKey, token)
		c.Next()
	}
}

// RequireStaff rejects patient-scoped callers. Routes behind it serve the
// provider side of the portal.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := handler.ClaimsFromContext(c)
		if claims == nil || !claims.Scope().Staff() {
			abortForbidden(c, "staff access required")
			return
		}
		c.Next()
	}
}

// RequireRole restricts a route to specific roles.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := handler.ClaimsFromContext(c)
		if claims == nil {
			abortUnauthorized(c, "authentication required")
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abortForbidden(c, "insufficient role")
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: http.StatusUnauthorized, Message: msg},
	})
}

func abortForbidden(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusForbidden, httputil.Response{
		Success: false,
		Error:   &httputil.Error{Code: http.StatusForbidden, Message: msg},
	})
}
