package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/medjourney/portal-api/internal/model"
)

// Context keys set by the auth middleware
const (
	ContextClaimsKey = "claims"
	ContextTokenKey  = "access_token"
)

// ClaimsFromContext returns the validated token claims, or nil on a route
// that skipped authentication.
func ClaimsFromContext(c *gin.Context) *model.TokenClaims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*model.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// ScopeFromContext derives the caller's row-level scope from its claims.
// The zero scope matches nothing, so a missing identity is safe.
func ScopeFromContext(c *gin.Context) model.AccessScope {
	claims := ClaimsFromContext(c)
	if claims == nil {
		return model.AccessScope{}
	}
	return claims.Scope()
}
