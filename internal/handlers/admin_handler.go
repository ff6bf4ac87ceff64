package handlers

import (
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/election"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/response"
	"github.com/gravadigital/urna-api/internal/services"
	"github.com/gravadigital/urna-api/internal/store"
)

// AdminHandler serves the workspace Admin console
type AdminHandler struct {
	store     *store.Store
	roster    *services.RosterService
	ballot    *services.BallotService
	results   *services.ResultsService
	lifecycle *lifecycle.Controller
	recorder  *audit.Recorder
	log       *log.Logger
}

func NewAdminHandler(s *store.Store, svc *services.Services, lc *lifecycle.Controller, rec *audit.Recorder) *AdminHandler {
	return &AdminHandler{
		store:     s,
		roster:    svc.Roster,
		ballot:    svc.Ballot,
		results:   svc.Results,
		lifecycle: lc,
		recorder:  rec,
		log:       logger.Handler("admin"),
	}
}

// ListPositions handles GET /api/admin/positions
func (h *AdminHandler) ListPositions(c *gin.Context) {
	positions, err := h.roster.ListPositions()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, positions)
}

// CreatePosition handles POST /api/admin/positions
func (h *AdminHandler) CreatePosition(c *gin.Context) {
	var req services.PositionRequest
	if !bind(c, &req) {
		return
	}

	position, err := h.roster.CreatePosition(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, position)
}

// UpdatePosition handles PUT /api/admin/positions/:id
func (h *AdminHandler) UpdatePosition(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req services.PositionRequest
	if !bind(c, &req) {
		return
	}

	position, err := h.roster.UpdatePosition(auth.Actor(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, position)
}

// DeletePosition handles DELETE /api/admin/positions/:id?confirm=true
func (h *AdminHandler) DeletePosition(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	removed, err := h.roster.DeletePosition(auth.Actor(c), id, confirmed(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id, "candidates_removed": removed})
}

// ListCandidates handles GET /api/admin/candidates?position_id=
func (h *AdminHandler) ListCandidates(c *gin.Context) {
	var positionID int
	if raw := c.Query("position_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequestError(c, "position_id must be an integer")
			return
		}
		positionID = id
	}

	candidates, err := h.roster.ListCandidates(positionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

// CreateCandidate handles POST /api/admin/candidates
func (h *AdminHandler) CreateCandidate(c *gin.Context) {
	var req services.CandidateRequest
	if !bind(c, &req) {
		return
	}

	candidate, err := h.roster.CreateCandidate(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, candidate)
}

// UpdateCandidate handles PUT /api/admin/candidates/:id
func (h *AdminHandler) UpdateCandidate(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req services.CandidateRequest
	if !bind(c, &req) {
		return
	}

	candidate, err := h.roster.UpdateCandidate(auth.Actor(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// DeleteCandidate handles DELETE /api/admin/candidates/:id
func (h *AdminHandler) DeleteCandidate(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.roster.DeleteCandidate(auth.Actor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// ListVoters handles GET /api/admin/voters
func (h *AdminHandler) ListVoters(c *gin.Context) {
	voters, err := h.roster.ListVoters()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, voters)
}

// CreateVoter handles POST /api/admin/voters
func (h *AdminHandler) CreateVoter(c *gin.Context) {
	var req services.VoterRequest
	if !bind(c, &req) {
		return
	}

	voter, err := h.roster.CreateVoter(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, voter)
}

// UpdateVoter handles PUT /api/admin/voters/:id
func (h *AdminHandler) UpdateVoter(c *gin.Context) {
	var req services.VoterRequest
	if !bind(c, &req) {
		return
	}

	voter, err := h.roster.UpdateVoter(auth.Actor(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, voter)
}

// DeleteVoter handles DELETE /api/admin/voters/:id
func (h *AdminHandler) DeleteVoter(c *gin.Context) {
	id := c.Param("id")
	if err := h.roster.DeleteVoter(auth.Actor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// BlockVoter handles POST /api/admin/voters/:id/block
func (h *AdminHandler) BlockVoter(c *gin.Context) {
	h.setBlocked(c, true)
}

// UnblockVoter handles POST /api/admin/voters/:id/unblock
func (h *AdminHandler) UnblockVoter(c *gin.Context) {
	h.setBlocked(c, false)
}

func (h *AdminHandler) setBlocked(c *gin.Context, blocked bool) {
	voter, err := h.roster.SetVoterBlocked(auth.Actor(c), c.Param("id"), blocked)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, voter)
}

// ResetVote handles POST /api/admin/voters/:id/reset-vote
func (h *AdminHandler) ResetVote(c *gin.Context) {
	removed, err := h.ballot.ResetVoterVote(auth.Actor(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voter_id": c.Param("id"), "votes_removed": removed})
}

type ElectionResponse struct {
	Details          election.Details `json:"details"`
	Status           election.Status  `json:"status"`
	ResultsPublished bool             `json:"results_published"`
	RemainingSeconds *int64           `json:"remaining_seconds,omitempty"`
}

// Election handles GET /api/admin/election
func (h *AdminHandler) Election(c *gin.Context) {
	data, err := h.store.Working()
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := ElectionResponse{
		Details:          data.ElectionDetails,
		Status:           data.ElectionStatus,
		ResultsPublished: data.ResultsPublished,
	}
	if remaining, running, err := h.lifecycle.Remaining(); err == nil && running {
		seconds := int64(remaining.Seconds())
		resp.RemainingSeconds = &seconds
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateDetails handles PUT /api/admin/election/details
func (h *AdminHandler) UpdateDetails(c *gin.Context) {
	var req services.DetailsRequest
	if !bind(c, &req) {
		return
	}

	details, err := h.roster.UpdateDetails(auth.Actor(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Start handles POST /api/admin/election/start
func (h *AdminHandler) Start(c *gin.Context) {
	h.transition(c, h.lifecycle.Start)
}

// End handles POST /api/admin/election/end
func (h *AdminHandler) End(c *gin.Context) {
	h.transition(c, h.lifecycle.End)
}

// Reset handles POST /api/admin/election/reset?confirm=true
func (h *AdminHandler) Reset(c *gin.Context) {
	if !confirmed(c) {
		response.Error(c, services.ErrConfirmationRequired)
		return
	}
	h.transition(c, h.lifecycle.ResetElection)
}

func (h *AdminHandler) transition(c *gin.Context, apply func(actor domain.Actor) error) {
	if err := apply(auth.Actor(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.Election(c)
}

type ResultsVisibilityRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// SetResults handles PUT /api/admin/election/results
func (h *AdminHandler) SetResults(c *gin.Context) {
	var req ResultsVisibilityRequest
	if !bind(c, &req) {
		return
	}

	if err := h.lifecycle.SetResultsPublished(auth.Actor(c), *req.Published); err != nil {
		response.Error(c, err)
		return
	}
	h.Election(c)
}

// Audit handles GET /api/admin/audit
func (h *AdminHandler) Audit(c *gin.Context) {
	entries, err := h.recorder.Workspace(auditFilter(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// Results handles GET /api/admin/results
func (h *AdminHandler) Results(c *gin.Context) {
	results, err := h.results.Current()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
