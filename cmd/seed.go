package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database/memory"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo school into PostgreSQL",
	Long: `Write users, classes, students, notifications and announcements from a
seed document into the PostgreSQL database, together with generated weekday
attendance for past days. Without --file the built-in demo school is used.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "", "Seed YAML document (default: built-in demo school)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if storeBackend(cmd, cfg) == "memory" {
		return errors.New("DATABASE_URL environment variable is required to seed")
	}

	seed, err := memory.DemoSeed()
	if path := mustGetString(cmd, "file"); path != "" {
		data, readErr := os.ReadFile(path) //nolint:gosec // path is a CLI argument
		if readErr != nil {
			return fmt.Errorf("reading seed: %w", readErr)
		}
		seed, err = memory.ParseSeed(data)
	}
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := seed.Apply(ctx, store, time.Now()); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}
	fmt.Printf("Seeded %d users, %d classes, %d students and %d days of history\n",
		len(seed.Users), len(seed.Classes), len(seed.Students), seed.History.Days)
	return nil
}
