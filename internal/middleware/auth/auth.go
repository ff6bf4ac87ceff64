// Package auth gates routes on the session token issued at login.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/response"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/store"
)

const sessionKey = "session"

// Authenticate requires a valid bearer token and stores its session in the context
func Authenticate(tokens *session.Tokens) gin.HandlerFunc {
	log := logger.HTTP()
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "missing_token", "authorization required")
			return
		}

		sess, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			log.Debug("Rejected session token", "path", c.Request.URL.Path, "error", err)
			response.AbortWithError(c, http.StatusUnauthorized, "invalid_token", "invalid or expired session")
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// Require allows the request only when the session role holds perm
func Require(perm session.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := FromContext(c)
		if !ok || !session.Can(sess.Role, perm) {
			response.AbortWithError(c, http.StatusForbidden, "forbidden", "not allowed for this role")
			return
		}
		c.Next()
	}
}

// ActiveWorkspace rejects Admin and Voter sessions once the installation has
// switched to another workspace than the one they signed in to.
func ActiveWorkspace(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := FromContext(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "missing_token", "authorization required")
			return
		}
		if sess.Role != domain.RoleAdmin && sess.Role != domain.RoleVoter {
			c.Next()
			return
		}

		ws, active := s.ActiveWorkspace()
		if !active || ws.ID != sess.WorkspaceID {
			response.AbortWithError(c, http.StatusConflict, "workspace_changed", "the active workspace changed, sign in again")
			return
		}
		c.Next()
	}
}

// FromContext returns the session set by Authenticate
func FromContext(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}

// Actor returns the audit actor of the authenticated session
func Actor(c *gin.Context) domain.Actor {
	sess, _ := FromContext(c)
	return sess.Actor
}
