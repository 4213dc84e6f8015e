package http

import (
	"strings"

	"fieldserve/internal/domain"

	"github.com/gin-gonic/gin"
)

const principalContextKey = "principal"

// authMiddleware resolves the principal from the bearer credential and
// rejects the request outright when none verifies. No retry; a failed
// verification is terminal for the request.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.AuthMode == "none" {
			subject := strings.TrimSpace(c.GetHeader("X-Subject"))
			if subject == "" {
				subject = "anonymous"
			}
			c.Set(principalContextKey, domain.Principal{Subject: subject})
			c.Next()
			return
		}
		if s.authInitErr != nil || s.authenticator == nil {
			s.writeError(c, s.authInitErr)
			c.Abort()
			return
		}
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			s.writeError(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		principal, err := s.authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			s.writeError(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// requireAdminMiddleware runs after authMiddleware and consults the
// authorizer. The authorizer is fail-closed, so a lookup failure lands
// here as Forbidden, never as allow.
func (s *Server) requireAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := getPrincipal(c)
		if !ok {
			s.writeError(c, domain.ErrUnauthenticated)
			c.Abort()
			return
		}
		if s.authorizer == nil {
			s.writeError(c, domain.ErrForbidden)
			c.Abort()
			return
		}
		if err := s.authorizer.RequireAdmin(c.Request.Context(), principal); err != nil {
			s.writeError(c, domain.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearerToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(value), "bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("bearer "):])
}

func getPrincipal(c *gin.Context) (domain.Principal, bool) {
	raw, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := raw.(domain.Principal)
	return principal, ok
}
