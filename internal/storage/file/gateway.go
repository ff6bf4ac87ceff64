// Package file stores the state blob as a JSON document on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-api/internal/logger"
)

// Gateway is a blob.Gateway backed by a single file
type Gateway struct {
	path string
	log  *log.Logger
}

// NewGateway creates a gateway writing to path, creating parent directories
func NewGateway(path string) (*Gateway, error) {
	if path == "" {
		return nil, fmt.Errorf("state file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &Gateway{
		path: path,
		log:  logger.Gateway("file"),
	}, nil
}

// Path returns the state file location
func (g *Gateway) Path() string {
	return g.path
}

// Load reads the state file; a missing file is a first run
func (g *Gateway) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		g.log.Debug("State file not found, starting fresh", "path", g.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// Save writes to a temporary sibling, syncs it to disk and renames it over the target
func (g *Gateway) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(g.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temporary state file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temporary state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temporary state file: %w", err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	// the rename itself is durable only once the directory entry is synced
	if d, err := os.Open(dir); err == nil {
		if err := d.Sync(); err != nil {
			g.log.Warn("Failed to sync state directory", "path", dir, "error", err)
		}
		d.Close()
	}

	g.log.Debug("State file written", "path", g.path, "bytes", len(data))
	return nil
}
