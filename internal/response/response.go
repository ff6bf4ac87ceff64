package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/backup"
	"github.com/gravadigital/urna-api/internal/lifecycle"
	"github.com/gravadigital/urna-api/internal/services"
	"github.com/gravadigital/urna-api/internal/session"
	"github.com/gravadigital/urna-api/internal/storage/blob"
	"github.com/gravadigital/urna-api/internal/store"
)

// Response representa la estructura estándar de respuesta de la API
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse representa una respuesta de error
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

// SuccessResponse envía una respuesta exitosa
func SuccessResponse(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseWithMessage envía una respuesta de error con mensaje personalizado
func ErrorResponseWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
	})
}

// AbortWithError corta la cadena de middlewares con un error
func AbortWithError(c *gin.Context, status int, reason, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
		Reason:  reason,
	})
}

// BadRequestError envía un error 400
func BadRequestError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusBadRequest, message)
}

// NotFoundError envía un error 404
func NotFoundError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusNotFound, message)
}

// InternalServerError envía un error 500
func InternalServerError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusInternalServerError, message)
}

// UnauthorizedError envía un error 401
func UnauthorizedError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusUnauthorized, message)
}

// ForbiddenError envía un error 403
func ForbiddenError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusForbidden, message)
}

// ConflictError envía un error 409
func ConflictError(c *gin.Context, message string) {
	ErrorResponseWithMessage(c, http.StatusConflict, message)
}

type mapping struct {
	target error
	status int
	reason string
}

// El orden importa: el primer sentinel que coincide decide el estado
var mappings = []mapping{
	{services.ErrValidation, http.StatusBadRequest, "validation_failed"},
	{backup.ErrInvalidName, http.StatusBadRequest, "invalid_backup_name"},
	{blob.ErrMalformedState, http.StatusUnprocessableEntity, "malformed_backup"},
	{session.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{session.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{session.ErrAccountBlocked, http.StatusForbidden, "account_blocked"},
	{services.ErrAccountBlocked, http.StatusForbidden, "account_blocked"},
	{services.ErrResultsNotPublished, http.StatusForbidden, "results_not_published"},
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{store.ErrWorkspaceNotFound, http.StatusNotFound, "workspace_not_found"},
	{session.ErrSelectWorkspace, http.StatusConflict, "select_workspace"},
	{store.ErrNoActiveWorkspace, http.StatusConflict, "select_workspace"},
	{session.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{services.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{session.ErrElectionNotRunning, http.StatusConflict, "election_not_in_progress"},
	{services.ErrVotingClosed, http.StatusConflict, "election_not_in_progress"},
	{services.ErrElectionRunning, http.StatusConflict, "election_in_progress"},
	{lifecycle.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{lifecycle.ErrResultsLocked, http.StatusConflict, "results_locked"},
	{services.ErrConflict, http.StatusConflict, "conflict"},
	{services.ErrConfirmationRequired, http.StatusPreconditionRequired, "confirmation_required"},
	{backup.ErrConfirmationRequired, http.StatusPreconditionRequired, "confirmation_required"},
	{backup.ErrNoArchive, http.StatusServiceUnavailable, "archive_disabled"},
}

// Status traduce un error de dominio a su código HTTP y razón
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.status, m.reason
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// Error envía el error de dominio con el código que le corresponde. Los
// errores internos no exponen su detalle.
func Error(c *gin.Context, err error) {
	status, reason := Status(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    status,
		Reason:  reason,
	})
}
