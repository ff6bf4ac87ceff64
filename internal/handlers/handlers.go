package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/response"
)

// bind decodes the JSON body and answers 400 when it does not fit req
func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request payload",
			"details": err.Error(),
			"code":    http.StatusBadRequest,
		})
		return false
	}
	return true
}

// intParam reads a numeric path parameter
func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.BadRequestError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// confirmed reads the ?confirm=true flag destructive operations ask for
func confirmed(c *gin.Context) bool {
	ok, _ := strconv.ParseBool(c.Query("confirm"))
	return ok
}

// auditFilter builds a journal filter from the query string
func auditFilter(c *gin.Context) audit.Filter {
	limit, _ := strconv.Atoi(c.Query("limit"))
	return audit.Filter{
		Action:  domain.Action(c.Query("action")),
		ActorID: c.Query("actor"),
		Role:    domain.Role(c.Query("role")),
		Limit:   max(limit, 0),
	}
}
