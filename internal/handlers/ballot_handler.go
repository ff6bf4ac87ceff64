package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/response"
	"github.com/gravadigital/urna-api/internal/services"
)

// BallotHandler serves the voter screen and the public results board
type BallotHandler struct {
	ballot  *services.BallotService
	results *services.ResultsService
	log     *log.Logger
}

func NewBallotHandler(svc *services.Services) *BallotHandler {
	return &BallotHandler{
		ballot:  svc.Ballot,
		results: svc.Results,
		log:     logger.Handler("ballot"),
	}
}

// GetBallot handles GET /api/ballot
func (h *BallotHandler) GetBallot(c *gin.Context) {
	ballot, err := h.ballot.Ballot(auth.Actor(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ballot)
}

// SubmitBallot handles POST /api/ballot
func (h *BallotHandler) SubmitBallot(c *gin.Context) {
	var req services.BallotRequest
	if !bind(c, &req) {
		return
	}

	voterID := auth.Actor(c).ID
	votes, err := h.ballot.CastBallot(voterID, req.Selections)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.log.Debug("Ballot accepted", "voter_id", voterID, "votes", len(votes))
	response.SuccessResponse(c, http.StatusCreated, "Ballot recorded", gin.H{"votes": len(votes)})
}

// PublicResults handles GET /api/results
func (h *BallotHandler) PublicResults(c *gin.Context) {
	results, err := h.results.Public()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
