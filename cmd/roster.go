package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database/mariadb"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage class rosters",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import classes and students from the school information system",
	Long: `Copy classes and students from the MariaDB database of the school
information system (SIS_DATABASE_URL). Existing students keep their enrolled
faces. New students whose name matches another student of the same class are
reported as conflicts and skipped.`,
	Args: cobra.NoArgs,
	RunE: runRosterImport,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.AddCommand(rosterImportCmd)

	rosterImportCmd.Flags().String("class", "", "Import only this class")
	rosterImportCmd.Flags().Bool("dry-run", false, "Show what would change without writing")
}

func runRosterImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.SIS.DatabaseURL == "" {
		return errors.New("SIS_DATABASE_URL environment variable is required")
	}
	ctx := context.Background()

	fmt.Println("Connecting to the school information system...")
	source, err := mariadb.NewPool(ctx, cfg.SIS.DatabaseURL)
	if err != nil {
		return err
	}
	defer source.Close()

	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	dryRun := mustGetBool(cmd, "dry-run")
	stats, err := mariadb.Import(ctx, source, store, mariadb.ImportOptions{
		ClassID: mustGetString(cmd, "class"),
		DryRun:  dryRun,
	})
	if err != nil {
		return fmt.Errorf("importing roster: %w", err)
	}

	if dryRun {
		fmt.Println("Dry run, nothing was written")
	}
	fmt.Printf("Classes: %d\n", stats.Classes)
	fmt.Printf("Students created: %d, updated: %d, skipped: %d\n", stats.Created, stats.Updated, stats.Skipped)
	for _, c := range stats.Conflicts {
		fmt.Printf("  conflict: %s\n", c)
	}
	return nil
}
