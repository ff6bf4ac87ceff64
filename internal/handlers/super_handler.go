package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/audit"
	"github.com/gravadigital/urna-api/internal/domain/profile"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/response"
	"github.com/gravadigital/urna-api/internal/services"
)

// SuperHandler serves the Super Admin console
type SuperHandler struct {
	workspaces *services.WorkspaceService
	results    *services.ResultsService
	lifecycle  *lifecycle.Controller
	recorder   *audit.Recorder
	log        *log.Logger
}

func NewSuperHandler(svc *services.Services, lc *lifecycle.Controller, rec *audit.Recorder) *SuperHandler {
	return &SuperHandler{
		workspaces: svc.Workspaces,
		results:    svc.Results,
		lifecycle:  lc,
		recorder:   rec,
		log:        logger.Handler("super_admin"),
	}
}

// ProfileResponse is a profile without its password
type ProfileResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Contact  string `json:"contact"`
}

func profileResponse(p profile.Profile) ProfileResponse {
	return ProfileResponse{ID: p.ID, Name: p.Name, ImageURL: p.ImageURL, Contact: p.Contact}
}

// ListWorkspaces handles GET /api/super/workspaces
func (h *SuperHandler) ListWorkspaces(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspaces.List())
}

// GetWorkspace handles GET /api/super/workspaces/:id
func (h *SuperHandler) GetWorkspace(c *gin.Context) {
	summary, err := h.workspaces.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CreateWorkspace handles POST /api/super/workspaces
func (h *SuperHandler) CreateWorkspace(c *gin.Context) {
	var req services.WorkspaceRequest
	if !bind(c, &req) {
		return
	}

	ws, err := h.workspaces.Create(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// RenameWorkspace handles PUT /api/super/workspaces/:id
func (h *SuperHandler) RenameWorkspace(c *gin.Context) {
	var req services.WorkspaceRequest
	if !bind(c, &req) {
		return
	}

	ws, err := h.workspaces.Rename(auth.Actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ws)
}

// DeleteWorkspace handles DELETE /api/super/workspaces/:id?confirm=true
func (h *SuperHandler) DeleteWorkspace(c *gin.Context) {
	id := c.Param("id")
	if err := h.workspaces.Delete(auth.Actor(c), id, confirmed(c)); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SetAdmin handles PUT /api/super/workspaces/:id/admin
func (h *SuperHandler) SetAdmin(c *gin.Context) {
	var req services.ProfileRequest
	if !bind(c, &req) {
		return
	}

	p, err := h.workspaces.SetAdmin(auth.Actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(p))
}

// RemoveAdmin handles DELETE /api/super/workspaces/:id/admin
func (h *SuperHandler) RemoveAdmin(c *gin.Context) {
	if err := h.workspaces.RemoveAdmin(auth.Actor(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NewElection handles POST /api/super/workspaces/:id/new-election?confirm=true
func (h *SuperHandler) NewElection(c *gin.Context) {
	if !confirmed(c) {
		response.Error(c, services.ErrConfirmationRequired)
		return
	}

	id := c.Param("id")
	if err := h.lifecycle.EnableNewElection(auth.Actor(c), id); err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.workspaces.Get(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// WorkspaceResults handles GET /api/super/workspaces/:id/results
func (h *SuperHandler) WorkspaceResults(c *gin.Context) {
	results, err := h.results.ForWorkspace(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Profile handles GET /api/super/profile
func (h *SuperHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, profileResponse(h.workspaces.SuperAdmin()))
}

// UpdateProfile handles PUT /api/super/profile
func (h *SuperHandler) UpdateProfile(c *gin.Context) {
	var req services.ProfileRequest
	if !bind(c, &req) {
		return
	}

	p, err := h.workspaces.UpdateSuperAdmin(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(p))
}

// Audit handles GET /api/super/audit
func (h *SuperHandler) Audit(c *gin.Context) {
	c.JSON(http.StatusOK, h.recorder.Global(auditFilter(c)))
}

type ThemeRequest struct {
	Theme workspace.Theme `json:"theme" binding:"required"`
}

// SetTheme handles PUT /api/settings/theme
func (h *SuperHandler) SetTheme(c *gin.Context) {
	var req ThemeRequest
	if !bind(c, &req) {
		return
	}

	if err := h.workspaces.SetTheme(req.Theme); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": h.workspaces.Theme()})
}
