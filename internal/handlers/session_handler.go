package handlers

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/response"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/store"
)

// SessionHandler serves the login screen: workspace picker, login and theme
type SessionHandler struct {
	store    *store.Store
	resolver *session.Resolver
	tokens   *session.Tokens
	log      *log.Logger
}

func NewSessionHandler(s *store.Store, resolver *session.Resolver, tokens *session.Tokens) *SessionHandler {
	return &SessionHandler{
		store:    s,
		resolver: resolver,
		tokens:   tokens,
		log:      logger.Handler("session"),
	}
}

type WorkspacesResponse struct {
	Workspaces []workspace.Workspace `json:"workspaces"`
	ActiveID   string                `json:"active_id,omitempty"`
	Theme      workspace.Theme       `json:"theme"`
}

// ListWorkspaces handles GET /api/workspaces
func (h *SessionHandler) ListWorkspaces(c *gin.Context) {
	state := h.store.State()
	resp := WorkspacesResponse{
		Workspaces: state.Workspaces,
		Theme:      state.Theme,
	}
	if ws, ok := h.store.ActiveWorkspace(); ok {
		resp.ActiveID = ws.ID
	}
	c.JSON(http.StatusOK, resp)
}

type SelectWorkspaceRequest struct {
	WorkspaceID string `json:"workspace_id"`
}

// SelectWorkspace handles POST /api/workspaces/select. An empty id clears the selection.
func (h *SessionHandler) SelectWorkspace(c *gin.Context) {
	var req SelectWorkspaceRequest
	if !bind(c, &req) {
		return
	}

	if err := h.store.SelectWorkspace(req.WorkspaceID); err != nil {
		response.Error(c, err)
		return
	}

	ws, ok := h.store.ActiveWorkspace()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"active": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": ws})
}

type LoginResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	Role        domain.Role  `json:"role"`
	Actor       domain.Actor `json:"actor"`
	WorkspaceID string       `json:"workspace_id,omitempty"`
}

// Login handles POST /api/session/login
func (h *SessionHandler) Login(c *gin.Context) {
	var creds session.Credentials
	if !bind(c, &creds) {
		return
	}

	sess, err := h.resolver.Resolve(creds)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(sess)
	if err != nil {
		h.log.Error("Failed to issue session token", "role", sess.Role, "error", err)
		response.InternalServerError(c, "Failed to start session")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt,
		Role:        sess.Role,
		Actor:       sess.Actor,
		WorkspaceID: sess.WorkspaceID,
	})
}

// Me handles GET /api/session
func (h *SessionHandler) Me(c *gin.Context) {
	sess, ok := auth.FromContext(c)
	if !ok {
		response.UnauthorizedError(c, "authorization required")
		return
	}
	c.JSON(http.StatusOK, sess)
}
