package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/roster"
	"github.com/aakash670/smart-attendance/internal/session"
)

var kioskCmd = &cobra.Command{
	Use:   "kiosk <class-id>",
	Short: "Run a scanning session against the IP camera",
	Long: `Run an attendance kiosk from the terminal.

The camera is started from CAMERA_SNAPSHOT_URL and the operator triggers
scans: every Enter grabs one frame and marks the recognized students of the
class present. When everyone is present the completion status is printed and
the session stays open. Type q (or press Ctrl+C) to end it.

With --max-scans the kiosk first runs that many scans on its own, one every
--interval, before handing control back to the operator.`,
	Args: cobra.ExactArgs(1),
	RunE: runKiosk,
}

const kioskPrompt = "Press Enter to scan, q to quit."

func init() {
	rootCmd.AddCommand(kioskCmd)

	kioskCmd.Flags().String("mode", string(roster.ModeKiosk), "Session mode: kiosk or live")
	kioskCmd.Flags().Int("max-scans", 0, "Run this many automatic scans before waiting for the operator (0 = none)")
	kioskCmd.Flags().Duration("interval", 3*time.Second, "Time between automatic scans")
	kioskCmd.Flags().Float64("threshold", 0, "Maximum match distance (0 = MATCH_DISTANCE_THRESHOLD)")
}

// kioskScanner runs one recognition pass of a session.
type kioskScanner interface {
	Scan(ctx context.Context) (*session.ScanReport, error)
}

func printScanReport(out io.Writer, report *session.ScanReport) {
	fmt.Fprintf(out, "%s (%d faces)\n", report.Status, report.Faces)
	for _, r := range report.Results {
		switch r.Outcome {
		case roster.OutcomeUnknown:
			fmt.Fprintf(out, "  unknown face (distance %.3f)\n", r.Distance)
		default:
			fmt.Fprintf(out, "  %-24s %-16s distance %.3f\n", r.StudentName, r.Outcome, r.Distance)
		}
	}
}

// scanOnce runs a single scan and prints its outcome. It reports whether
// every student is present.
func scanOnce(ctx context.Context, s kioskScanner, out io.Writer) bool {
	report, err := s.Scan(ctx)
	switch {
	case errors.Is(err, session.ErrNothingPending):
		fmt.Fprintln(out, "Everyone is already marked present.")
		return true
	case err != nil && ctx.Err() != nil:
		return false
	case err != nil:
		fmt.Fprintf(out, "Scan failed: %v\n", err)
		return false
	}
	printScanReport(out, report)
	if report.Complete {
		fmt.Fprintln(out, "All students are marked present. Type q to end the session.")
	}
	return report.Complete
}

// readLines streams trimmed input lines until EOF or ctx is done.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSpace(sc.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// runKioskLoop runs maxScans automatic scans, then one scan per empty input
// line until q, EOF or ctx is done. Completion never ends the loop.
func runKioskLoop(ctx context.Context, s kioskScanner, in io.Reader, out io.Writer, maxScans int, interval time.Duration) error {
	if maxScans > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := 0; i < maxScans; i++ {
			if i > 0 {
				select {
				case <-ctx.Done():
					fmt.Fprintln(out, "\nStopping kiosk...")
					return nil
				case <-ticker.C:
				}
			}
			if scanOnce(ctx, s, out) {
				break
			}
		}
	}

	fmt.Fprintln(out, kioskPrompt)
	lines := readLines(ctx, in)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopping kiosk...")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			switch strings.ToLower(line) {
			case "":
				scanOnce(ctx, s, out)
			case "q", "quit":
				return nil
			default:
				fmt.Fprintln(out, kioskPrompt)
			}
		}
	}
}

func runKiosk(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Camera.SnapshotURL == "" {
		return errors.New("CAMERA_SNAPSHOT_URL environment variable is required")
	}
	cfg.Web.PushCamera = false

	mode := roster.Mode(mustGetString(cmd, "mode"))
	maxScans := mustGetInt(cmd, "max-scans")
	interval := mustGetDuration(cmd, "interval")
	if threshold := mustGetFloat64(cmd, "threshold"); threshold > 0 {
		cfg.Matching.DistanceThreshold = threshold
	}
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	class, err := store.GetClass(ctx, args[0])
	if err != nil {
		return fmt.Errorf("class %s: %w", args[0], err)
	}

	descriptors := facematch.NewDescriptorStore(store, cfg.Vision.Dim)
	manager := newSessionManager(cfg, store, descriptors, time.Now)
	defer manager.StopAll()

	s, err := manager.StartSession(ctx, class.ID, mode)
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	snap := s.Snapshot()
	fmt.Fprintf(out, "%s: %d students to recognize, %d already present\n", class.Name, len(snap.Pending), len(snap.Resolved))

	if err := s.StartCamera(ctx); err != nil {
		return fmt.Errorf("starting camera: %w", err)
	}

	if err := runKioskLoop(ctx, s, cmd.InOrStdin(), out, maxScans, interval); err != nil {
		return err
	}

	snap = s.Snapshot()
	fmt.Fprintf(out, "Session ended: %d present, %d not recognized\n", len(snap.Resolved), len(snap.Pending))
	return nil
}
