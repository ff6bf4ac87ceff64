package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/storage/migrations"
)

// Gateway is a blob.Gateway storing one app_states row per scope
type Gateway struct {
	db    *gorm.DB
	scope string
	log   *log.Logger
}

// NewGateway creates a gateway for the given install scope
func NewGateway(db *gorm.DB, scope string) *Gateway {
	return &Gateway{
		db:    db,
		scope: scope,
		log:   logger.Gateway("postgres"),
	}
}

// Load reads the row for this scope; no row is a first run
func (g *Gateway) Load(ctx context.Context) ([]byte, error) {
	var record migrations.StateRecord
	err := g.db.WithContext(ctx).Where("scope = ?", g.scope).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		g.log.Debug("No stored state, starting fresh", "scope", g.scope)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return []byte(record.Payload), nil
}

// Save upserts the row in a single transaction so readers see the old or the new blob
func (g *Gateway) Save(ctx context.Context, data []byte) error {
	header := summarize(data)
	record := migrations.StateRecord{
		Scope:         g.scope,
		Payload:       datatypes.JSON(data),
		WorkspaceIDs:  header.workspaceIDs(),
		SchemaVersion: header.SchemaVersion,
		Bytes:         len(data),
	}

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "workspace_ids", "schema_version", "bytes", "updated_at"}),
		}).Create(&record).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	g.log.Debug("State saved", "scope", g.scope, "bytes", len(data), "workspaces", len(record.WorkspaceIDs))
	return nil
}

// WorkspaceScopes lists the scopes whose stored blob references workspaceID
func (g *Gateway) WorkspaceScopes(ctx context.Context, workspaceID string) ([]string, error) {
	states, err := StoredStates(ctx, g.db, workspaceID)
	if err != nil {
		return nil, err
	}
	scopes := make([]string, 0, len(states))
	for _, st := range states {
		scopes = append(scopes, st.Scope)
	}
	return scopes, nil
}

// StoredStates lists every app_states row without its payload, newest first.
// A non-empty workspaceID keeps only rows whose blob references it.
func StoredStates(ctx context.Context, db *gorm.DB, workspaceID string) ([]migrations.StateRecord, error) {
	query := db.WithContext(ctx).Model(&migrations.StateRecord{}).Omit("payload")
	if workspaceID != "" {
		query = query.Where("? = ANY(workspace_ids)", workspaceID)
	}

	var states []migrations.StateRecord
	if err := query.Order("updated_at DESC").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("failed to query stored states: %w", err)
	}
	return states, nil
}

// blobHeader is the part of the blob the row denormalizes into columns
type blobHeader struct {
	SchemaVersion int `json:"schemaVersion"`
	Workspaces    []struct {
		ID string `json:"id"`
	} `json:"workspaces"`
}

func summarize(data []byte) blobHeader {
	var header blobHeader
	_ = json.Unmarshal(data, &header)
	if header.SchemaVersion == 0 {
		header.SchemaVersion = 1
	}
	return header
}

func (h blobHeader) workspaceIDs() []string {
	ids := make([]string, 0, len(h.Workspaces))
	for _, ws := range h.Workspaces {
		ids = append(ids, ws.ID)
	}
	return ids
}
