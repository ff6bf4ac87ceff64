package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gravadigital/urna-api/internal/config"
	"github.com/gravadigital/urna-api/internal/logger"
	"github.com/gravadigital/urna-api/internal/storage/migrations"
	"github.com/gravadigital/urna-api/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Log.Level)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List pending migrations and stored states, then exit")
	workspaceID := flag.String("workspace", "", "With -status, list the state scopes that reference this workspace id")
	flag.Parse()

	log.Info("Starting migration process", "rollback", *rollback, "status", *status)

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	switch {
	case *status:
		pending, err := migrations.Pending(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		if len(pending) > 0 {
			for _, m := range pending {
				fmt.Printf("pending: %s_%s\n", m.ID, m.Name)
			}
			return
		}
		fmt.Println("Schema is up to date")

		ctx := context.Background()
		if *workspaceID != "" {
			scopes, err := postgres.NewGateway(db, cfg.Storage.Scope).WorkspaceScopes(ctx, *workspaceID)
			if err != nil {
				log.Error("Failed to look up workspace scopes", "workspace_id", *workspaceID, "error", err)
				os.Exit(1)
			}
			fmt.Printf("workspace %s is stored in scopes: [%s]\n", *workspaceID, strings.Join(scopes, ","))
			return
		}

		states, err := postgres.StoredStates(ctx, db, "")
		if err != nil {
			log.Error("Failed to list stored states", "error", err)
			os.Exit(1)
		}
		for _, st := range states {
			current := ""
			if st.Scope == cfg.Storage.Scope {
				current = " (this install)"
			}
			fmt.Printf("state: %s%s schema=v%d bytes=%d updated=%s workspaces=[%s]\n",
				st.Scope, current, st.SchemaVersion, st.Bytes,
				st.UpdatedAt.UTC().Format(time.RFC3339), strings.Join(st.WorkspaceIDs, ","))
		}
		return

	case *rollback:
		log.Info("Rolling back migrations...")
		if err := migrations.RollbackMigration(db); err != nil {
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migration rollback completed successfully")

	default:
		log.Info("Running migrations...")
		if err := migrations.RunMigrations(db); err != nil {
			log.Error("Migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migrations completed successfully")
	}

	fmt.Println("Migration process completed!")
}
