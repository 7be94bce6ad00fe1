package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "smart-attendance",
	Short: "Face recognition attendance for schools",
	Long: `Smart Attendance marks students present by recognizing their faces in
camera frames. It runs the scanning API for kiosks and teachers, enrolls
student photos, imports rosters from the school information system and
prints attendance reports.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().Bool("memory", false, "Use the in-memory demo school instead of PostgreSQL")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
