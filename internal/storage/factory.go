package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/storage/blob"
	"github.com/gravadigital/urna-api/internal/storage/file"
	"github.com/gravadigital/urna-api/internal/storage/memory"
	"github.com/gravadigital/urna-api/internal/storage/objectstore"
	"github.com/gravadigital/urna-api/internal/storage/postgres"
	"github.com/gravadigital/urna-api/internal/storage/redis"
)

// StorageType represents the type of storage backend
type StorageType string

const (
	// StorageTypeFile keeps the state in a local JSON file
	StorageTypeFile StorageType = "file"
	// StorageTypeMemory keeps the state in process memory only
	StorageTypeMemory StorageType = "memory"
	// StorageTypePostgres represents PostgreSQL storage
	StorageTypePostgres StorageType = "postgres"
	// StorageTypeRedis keeps the state under one Redis key
	StorageTypeRedis StorageType = "redis"
	// StorageTypeMinio keeps the state as one object in a bucket
	StorageTypeMinio StorageType = "minio"
)

// Backend bundles the selected gateway with the optional backup archive
type Backend struct {
	Gateway blob.Gateway
	Archive *objectstore.Client
	Type    StorageType
	closers []func() error
}

// Close releases every connection the backend opened
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory provides a factory pattern for creating state gateways
type Factory struct {
	storageType StorageType
}

// NewFactory creates a new storage factory
func NewFactory(storageType StorageType) *Factory {
	return &Factory{
		storageType: storageType,
	}
}

// CreateBackend builds the gateway for the configured type, plus the archive when enabled
func (f *Factory) CreateBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	log := logger.Gateway(string(f.storageType))
	backend := &Backend{Type: f.storageType}

	var objects *objectstore.Client
	needObjects := f.storageType == StorageTypeMinio || cfg.ObjectStore.Archive
	if needObjects {
		client, err := objectstore.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object store: %w", err)
		}
		objects = client
		if cfg.ObjectStore.Archive {
			backend.Archive = client
		}
	}

	switch f.storageType {
	case StorageTypeFile:
		g, err := file.NewGateway(cfg.Storage.File)
		if err != nil {
			return nil, err
		}
		backend.Gateway = g
	case StorageTypeMemory:
		backend.Gateway = memory.NewGateway()
	case StorageTypePostgres:
		container, err := postgres.NewContainer(cfg)
		if err != nil {
			return nil, err
		}
		backend.Gateway = container.Gateway()
		backend.closers = append(backend.closers, container.Close)
	case StorageTypeRedis:
		g, err := redis.NewGateway(cfg.Redis.URL, cfg.Redis.KeyPrefix, cfg.Storage.Scope)
		if err != nil {
			return nil, err
		}
		backend.Gateway = g
		backend.closers = append(backend.closers, g.Close)
	case StorageTypeMinio:
		backend.Gateway = objects.Gateway(cfg.Storage.Scope)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", f.storageType)
	}

	log.Info("State gateway ready", "type", f.storageType, "archive", backend.Archive != nil)
	return backend, nil
}

// GetSupportedTypes returns a list of supported storage types
func GetSupportedTypes() []StorageType {
	return []StorageType{
		StorageTypeFile,
		StorageTypeMemory,
		StorageTypePostgres,
		StorageTypeRedis,
		StorageTypeMinio,
	}
}

// ValidateStorageType validates if a storage type is supported
func ValidateStorageType(storageType string) (StorageType, error) {
	st := StorageType(storageType)

	for _, supported := range GetSupportedTypes() {
		if st == supported {
			return st, nil
		}
	}

	return "", fmt.Errorf("unsupported storage type: %s. Supported types: %v", storageType, GetSupportedTypes())
}

// DefaultFactory returns a factory configured with the default storage type
func DefaultFactory() *Factory {
	return NewFactory(StorageTypeFile)
}
