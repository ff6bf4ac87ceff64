package postgres

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/logger"
)

// Container owns the database connection behind the Postgres gateway
type Container struct {
	db      *gorm.DB
	log     *log.Logger
	gateway *Gateway
}

// NewContainer connects, migrates and health-checks the database
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Gateway("postgres_container")
	log.Info("Initializing PostgreSQL gateway container...")

	db, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db, cfg.Storage.Scope)
	if err := container.Health(); err != nil {
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL gateway container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB, scope string) *Container {
	return &Container{
		db:      db,
		log:     logger.Gateway("postgres_container"),
		gateway: NewGateway(db, scope),
	}
}

// Gateway returns the state gateway
func (c *Container) Gateway() *Gateway {
	return c.gateway
}

// Health checks the connection and that the state table is queryable
func (c *Container) Health() error {
	if err := HealthCheck(c.db); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	metrics := GetDatabaseMetrics(c.db)
	c.log.Debug("Database connection metrics",
		"open_connections", metrics.OpenConnections,
		"in_use_connections", metrics.InUseConnections,
		"idle_connections", metrics.IdleConnections)

	var count int64
	if err := c.db.Table("app_states").Count(&count).Error; err != nil {
		return fmt.Errorf("app_states health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}

	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}

	c.db = nil
	c.log.Info("PostgreSQL gateway container closed")
	return nil
}

// CloseWithTimeout closes the container with a timeout
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- c.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("container close operation timed out after %v", timeout)
	}
}
