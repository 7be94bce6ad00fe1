package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/session"
	"github.com/aakash670/smart-attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the Smart Attendance API server.
Kiosks and teacher dashboards use it to run scanning sessions, mark
attendance manually, browse reports and send notifications.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().StringSlice("allowed-origins", nil, "Extra CORS origins (adds to WEB_ALLOWED_ORIGINS)")
	serveCmd.Flags().Float64("threshold", 0, "Maximum match distance (0 = MATCH_DISTANCE_THRESHOLD)")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// newSessionManager wires the scanning pipeline: vision client, descriptor
// store, attendance writer and the camera source.
func newSessionManager(cfg *config.Config, store database.Store, descriptors *facematch.DescriptorStore, now func() time.Time) *session.Manager {
	deps := session.Deps{
		Detector:    newVisionClient(cfg),
		Descriptors: descriptors,
		Students:    store,
		Attendance:  store,
		Marker:      attendance.NewWriter(store, now),
		Threshold:   cfg.Matching.DistanceThreshold,
		Now:         now,
	}
	if !cfg.Web.PushCamera {
		deps.Camera = camera.NewSnapshotCamera(cfg.Camera.SnapshotURL, cfg.Camera.Username, cfg.Camera.GetPassword())
		fmt.Printf("Sessions read frames from %s\n", cfg.Camera.SnapshotURL)
	}

	manager := session.NewManager(deps)
	if cfg.Web.PushCamera {
		manager.SetCameraFactory(func() camera.Device { return camera.NewPushCamera(true) })
		fmt.Println("Sessions read frames pushed to /api/v1/sessions/{id}/frames")
	}
	return manager
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.Web.AllowedOrigins = append(cfg.Web.AllowedOrigins, mustGetStringSlice(cmd, "allowed-origins")...)
	if threshold := mustGetFloat64(cmd, "threshold"); threshold > 0 {
		cfg.Matching.DistanceThreshold = threshold
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	port, host := resolveServeHostPort(cmd)
	descriptors := facematch.NewDescriptorStore(store, cfg.Vision.Dim)
	manager := newSessionManager(cfg, store, descriptors, time.Now)

	server := web.NewServer(cfg, port, host, web.Deps{
		Store:       store,
		Sessions:    manager,
		Descriptors: descriptors,
		Detector:    newVisionClient(cfg),
		Now:         time.Now,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting %s attendance API on http://%s:%d\n", cfg.School.Name, host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
