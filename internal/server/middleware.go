package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/authhub/internal/usercontext"
)

const (
	headerUserID       = "X-User-Id"
	headerKeycloakGUID = "X-Keycloak-Guid"
	headerLoginSource  = "X-Login-Source"
	headerRoles        = "X-Roles"
)

// UserContextMiddleware resolves the caller identity forwarded by the API
// gateway into the request context. The gateway has already validated the
// bearer token; these headers are trusted claims.
func UserContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := strconv.ParseInt(strings.TrimSpace(c.GetHeader(headerUserID)), 10, 64)

		var roles []string
		for _, role := range strings.Split(c.GetHeader(headerRoles), ",") {
			if role = strings.TrimSpace(role); role != "" {
				roles = append(roles, strings.ToLower(role))
			}
		}

		if userID != 0 || len(roles) > 0 {
			ctx := usercontext.WithUser(c.Request.Context(), usercontext.UserContext{
				UserID:       userID,
				KeycloakGUID: strings.TrimSpace(c.GetHeader(headerKeycloakGUID)),
				LoginSource:  strings.TrimSpace(c.GetHeader(headerLoginSource)),
				Roles:        roles,
			})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// CatalogRateLimit throttles the public catalog endpoint per client address.
func (s *Server) CatalogRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.catalogLimiter == nil || !s.catalogLimiter.Enabled() {
			c.Next()
			return
		}

		allowed, retryAfter := s.catalogLimiter.Allow(c.Request.Context(), c.ClientIP())
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{
				Code:    "RATE_LIMITED",
				Message: "too many requests",
			})
			return
		}
		c.Next()
	}
}
