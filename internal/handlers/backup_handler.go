package handlers

import (
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-api/internal/backup"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/middleware/auth"
	"github.com/gravadigital/urna-api/internal/response"
)

// maxBackupSize bounds an uploaded backup document
const maxBackupSize = 32 << 20

// BackupHandler serves export and import of the whole application state
type BackupHandler struct {
	backups *backup.Controller
	log     *log.Logger
}

func NewBackupHandler(backups *backup.Controller) *BackupHandler {
	return &BackupHandler{
		backups: backups,
		log:     logger.Handler("backup"),
	}
}

// Status handles GET /api/super/backup
func (h *BackupHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"last_backup": h.backups.LastBackup(),
		"archive":     h.backups.HasArchive(),
	})
}

// Export handles GET /api/super/backup/export and downloads the document
func (h *BackupHandler) Export(c *gin.Context) {
	doc, err := h.backups.Export(auth.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/json", doc.Data)
}

// Import handles POST /api/super/backup/import?confirm=true with the document as body
func (h *BackupHandler) Import(c *gin.Context) {
	data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupSize))
	if err != nil {
		response.BadRequestError(c, "Failed to read backup document")
		return
	}

	if err := h.backups.Import(c.Request.Context(), data, confirmed(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessResponse(c, http.StatusOK, "Backup restored", nil)
}

// ListArchives handles GET /api/super/backup/archives
func (h *BackupHandler) ListArchives(c *gin.Context) {
	objects, err := h.backups.ListArchives(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, objects)
}

// Archive handles POST /api/super/backup/archives
func (h *BackupHandler) Archive(c *gin.Context) {
	doc, err := h.backups.ExportToArchive(c.Request.Context(), auth.Actor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// Restore handles POST /api/super/backup/archives/:name/restore?confirm=true
func (h *BackupHandler) Restore(c *gin.Context) {
	name := c.Param("name")
	if err := h.backups.RestoreArchive(c.Request.Context(), name, confirmed(c)); err != nil {
		response.Error(c, err)
		return
	}

	h.log.Info("Archived backup restored", "name", name)
	response.SuccessResponse(c, http.StatusOK, "Backup restored", gin.H{"name": name})
}
