package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database"
	_ "github.com/aakash670/smart-attendance/internal/database/memory"   // registers the memory backend
	_ "github.com/aakash670/smart-attendance/internal/database/postgres" // registers the postgres backend
	"github.com/aakash670/smart-attendance/internal/vision"
)

// storeBackend picks the database backend: PostgreSQL when DATABASE_URL is
// set, the in-memory demo school otherwise or when --memory is given.
func storeBackend(cmd *cobra.Command, cfg *config.Config) string {
	if mustGetBool(cmd, "memory") || cfg.Database.URL == "" {
		return "memory"
	}
	return "postgres"
}

// openStore opens the configured backend.
func openStore(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (database.Store, error) {
	backend := storeBackend(cmd, cfg)
	if backend == "memory" {
		fmt.Println("Using in-memory demo school (data is lost on exit)")
	} else {
		fmt.Println("Connecting to PostgreSQL database...")
	}
	return database.GetStore(ctx, backend, cfg)
}

func newVisionClient(cfg *config.Config) *vision.Client {
	return vision.NewClient(cfg.Vision.URL, cfg.Vision.Model, cfg.Vision.Dim, cfg.Vision.MaxFrameSize)
}
