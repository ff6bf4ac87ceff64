// Package backup exports the whole application state to a portable JSON
// document and restores it through the persistence gateway.
package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/audit"
	domain "github.com/gravadigital/urna-api/internal/domain/audit"
	"github.com/gravadigital/urna-api/internal/domain/workspace"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/storage/blob"
	"github.com/gravadigital/urna-api/internal/storage/objectstore"
	"github.com/gravadigital/urna-api/internal/store"
)

const (
	filePrefix = "urna-backup-"
	fileLayout = "2006-01-02T15-04-05Z"
)

var (
	ErrConfirmationRequired = errors.New("import replaces all data and must be confirmed")
	ErrNoArchive            = errors.New("backup archive is not configured")
	ErrInvalidName          = errors.New("invalid backup name")
)

// Archive stores exported documents outside the state gateway
type Archive interface {
	PutBackup(ctx context.Context, name string, data []byte) error
	GetBackup(ctx context.Context, name string) ([]byte, error)
	ListBackups(ctx context.Context) ([]objectstore.Object, error)
}

// Document is one exported backup
type Document struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"-"`
}

// Controller runs exports and imports
type Controller struct {
	store    *store.Store
	recorder *audit.Recorder
	archive  Archive
	log      *log.Logger
}

// NewController creates a controller; archive may be nil
func NewController(s *store.Store, recorder *audit.Recorder, archive Archive) *Controller {
	return &Controller{
		store:    s,
		recorder: recorder,
		archive:  archive,
		log:      logger.Backup(),
	}
}

// Filename names a backup taken at t
func Filename(t time.Time) string {
	return filePrefix + t.UTC().Format(fileLayout) + ".json"
}

// HasArchive reports whether archive operations are available
func (c *Controller) HasArchive() bool {
	return c.archive != nil
}

// LastBackup returns when the last export happened
func (c *Controller) LastBackup() *time.Time {
	return c.store.State().LastBackupTimestamp
}

// Export serializes every workspace, not only the active one. The document
// already carries the new lastBackupTimestamp and the export journal entry,
// so importing it reproduces the state as it is after the export.
func (c *Controller) Export(actor domain.Actor) (Document, error) {
	now := c.store.Now()
	name := Filename(now)
	entry, err := c.recorder.Entry(actor, domain.ActionBackupExported, name)
	if err != nil {
		return Document{}, err
	}

	state := c.store.State()
	state.LastBackupTimestamp = &now
	state.Record(entry)
	data, err := blob.Encode(state)
	if err != nil {
		return Document{}, err
	}

	err = c.store.MutateRoot(func(root *workspace.AppState) error {
		root.LastBackupTimestamp = &now
		root.Record(entry)
		return nil
	})
	if err != nil {
		return Document{}, fmt.Errorf("record backup: %w", err)
	}

	logger.Audit().Debug("Super admin action", "actor", actor.ID, "action", domain.ActionBackupExported, "details", name)
	c.log.Info("Backup exported", "filename", name, "bytes", len(data), "workspaces", len(state.Workspaces))
	return Document{Filename: name, Timestamp: now, Data: data}, nil
}

// ExportToArchive exports and keeps a copy in the archive
func (c *Controller) ExportToArchive(ctx context.Context, actor domain.Actor) (Document, error) {
	if c.archive == nil {
		return Document{}, ErrNoArchive
	}
	doc, err := c.Export(actor)
	if err != nil {
		return Document{}, err
	}
	if err := c.archive.PutBackup(ctx, doc.Filename, doc.Data); err != nil {
		return Document{}, fmt.Errorf("archive backup: %w", err)
	}
	return doc, nil
}

// Import overwrites the gateway with data and reloads from it. Malformed
// input is rejected before anything is written.
func (c *Controller) Import(ctx context.Context, data []byte, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}

	state, err := blob.Decode(data, c.store.Seed())
	if err != nil {
		c.log.Warn("Rejected backup import", "error", err)
		return err
	}
	encoded, err := blob.Encode(state)
	if err != nil {
		return err
	}

	if err := c.store.Overwrite(ctx, encoded); err != nil {
		c.log.Error("Backup import failed", "error", err)
		return fmt.Errorf("import backup: %w", err)
	}

	logger.Audit().Debug("Super admin action", "action", domain.ActionBackupImported, "workspaces", len(state.Workspaces))
	c.log.Warn("Backup imported, state replaced", "workspaces", len(state.Workspaces), "schema_version", state.SchemaVersion)
	return nil
}

// ListArchives lists archived backups, newest first
func (c *Controller) ListArchives(ctx context.Context) ([]objectstore.Object, error) {
	if c.archive == nil {
		return nil, ErrNoArchive
	}
	return c.archive.ListBackups(ctx)
}

// RestoreArchive imports an archived backup by name
func (c *Controller) RestoreArchive(ctx context.Context, name string, confirmed bool) error {
	if c.archive == nil {
		return ErrNoArchive
	}
	if !strings.HasPrefix(name, filePrefix) || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	if !confirmed {
		return ErrConfirmationRequired
	}

	data, err := c.archive.GetBackup(ctx, name)
	if err != nil {
		return err
	}
	return c.Import(ctx, data, true)
}
