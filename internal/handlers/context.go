package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	iauth "github.com/labhubhq/labhub/internal/auth"
	"github.com/labhubhq/labhub/internal/middleware"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentClaims returns the authenticated caller identity placed by the auth middleware.
func currentClaims(c *gin.Context) (*iauth.Claims, bool) {
	value, ok := c.Get(middleware.CtxClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*iauth.Claims)
	return claims, ok
}

// currentUserID returns the authenticated caller's user id, or "" when absent.
func currentUserID(c *gin.Context) string {
	claims, ok := currentClaims(c)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserID
}
