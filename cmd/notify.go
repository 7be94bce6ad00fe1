package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send notifications to parents and staff",
}

var notifyAbsentCmd = &cobra.Command{
	Use:   "absent <class-id>",
	Short: "Notify the parents of students without attendance today",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotifyAbsent,
}

var notifyBroadcastCmd = &cobra.Command{
	Use:   "broadcast <message>",
	Short: "Send an announcement to a role or to everyone",
	Long: `Store an announcement and send it as a notification to every user
with the --audience role. The audience "All" reaches every user except
administrators.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNotifyBroadcast,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyAbsentCmd, notifyBroadcastCmd)

	notifyBroadcastCmd.Flags().String("audience", database.AudienceAll, "All, admin, teacher, student or parent")
	notifyBroadcastCmd.Flags().String("sent-by", "", "User ID of the sender")
}

func runNotifyAbsent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	absent, err := attendance.NewNotifier(store, time.Now).SendAbsenceNotifications(ctx, args[0])
	if err != nil {
		return fmt.Errorf("sending absence notifications: %w", err)
	}
	if absent == 0 {
		fmt.Printf("Everyone in %s has attendance today\n", args[0])
		return nil
	}
	fmt.Printf("%d students of %s are absent, their parents were notified\n", absent, args[0])
	return nil
}

func runNotifyBroadcast(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	message := strings.Join(args, " ")
	audience := mustGetString(cmd, "audience")
	announcement, err := attendance.NewNotifier(store, time.Now).Broadcast(ctx, message, audience, mustGetString(cmd, "sent-by"))
	if err != nil {
		return err
	}
	fmt.Printf("Announcement %s sent to %s\n", announcement.ID, announcement.Audience)
	return nil
}
