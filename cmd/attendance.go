package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/attendance"
	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/database"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Attendance reports and manual marking",
}

var attendanceTodayCmd = &cobra.Command{
	Use:   "today <class-id>",
	Short: "Show the daily summary of a class",
	Long: `Show every student of a class with their status for one day.
Defaults to today; use --date for another day.`,
	Args: cobra.ExactArgs(1),
	RunE: runAttendanceToday,
}

var attendanceRangeCmd = &cobra.Command{
	Use:   "range <class-id>",
	Short: "List the records of a class between two days",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceRange,
}

var attendanceStudentCmd = &cobra.Command{
	Use:   "student <student-id>",
	Short: "List the records of a student for one month",
	Args:  cobra.ExactArgs(1),
	RunE:  runAttendanceStudent,
}

var attendanceMarkCmd = &cobra.Command{
	Use:   "mark <student-id> <Present|Absent|Late>",
	Short: "Record a student's status for today",
	Args:  cobra.ExactArgs(2),
	RunE:  runAttendanceMark,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.AddCommand(attendanceTodayCmd, attendanceRangeCmd, attendanceStudentCmd, attendanceMarkCmd)

	attendanceCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	attendanceTodayCmd.Flags().String("date", "", "Day to summarize (YYYY-MM-DD, default today)")

	attendanceRangeCmd.Flags().String("from", "", "First day (YYYY-MM-DD)")
	attendanceRangeCmd.Flags().String("to", "", "Last day (YYYY-MM-DD)")
	_ = attendanceRangeCmd.MarkFlagRequired("from")
	_ = attendanceRangeCmd.MarkFlagRequired("to")

	now := time.Now()
	attendanceStudentCmd.Flags().Int("month", int(now.Month()), "Month (1-12)")
	attendanceStudentCmd.Flags().Int("year", now.Year(), "Year")
}

func printRecords(records []database.AttendanceRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tSTUDENT\tCLASS\tSTATUS\tTIME")
	fmt.Fprintln(w, "----\t-------\t-----\t------\t----")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.Date, rec.StudentID, rec.ClassID, rec.Status, rec.Timestamp.Format("15:04"))
	}
	w.Flush()
	fmt.Printf("\nTotal: %d records\n", len(records))
}

func runAttendanceToday(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	class, err := store.GetClass(ctx, args[0])
	if err != nil {
		return fmt.Errorf("class %s: %w", args[0], err)
	}
	reports := attendance.NewReports(store, store, time.Now)
	summary, err := reports.DailySummary(ctx, class.ID, mustGetString(cmd, "date"))
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(summary)
	}

	fmt.Printf("%s (%s) on %s\n\n", class.Name, class.ID, summary.Date)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROLL\tNAME\tSTATUS")
	fmt.Fprintln(w, "----\t----\t------")
	for _, row := range summary.Rows {
		status := string(row.Status)
		if status == "" {
			status = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", row.RollNumber, row.Name, status)
	}
	w.Flush()
	fmt.Printf("\nPresent: %d  Late: %d  Absent: %d  Unmarked: %d  Total: %d\n",
		summary.Present, summary.Late, summary.Absent, summary.Unmarked, summary.Total)
	return nil
}

func runAttendanceRange(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reports := attendance.NewReports(store, store, time.Now)
	records, err := reports.ClassByDateRange(ctx, args[0], mustGetString(cmd, "from"), mustGetString(cmd, "to"))
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(records)
	}
	printRecords(records)
	return nil
}

func runAttendanceStudent(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	reports := attendance.NewReports(store, store, time.Now)
	records, err := reports.StudentMonth(ctx, args[0], time.Month(mustGetInt(cmd, "month")), mustGetInt(cmd, "year"))
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(records)
	}
	printRecords(records)
	return nil
}

func runAttendanceMark(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()
	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	student, err := store.GetStudent(ctx, args[0])
	if err != nil {
		return fmt.Errorf("student %s: %w", args[0], err)
	}
	rec, err := attendance.NewWriter(store, time.Now).Mark(ctx, student.ID, student.ClassID, database.AttendanceStatus(args[1]))
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		return outputJSON(rec)
	}
	fmt.Printf("Marked %s %s on %s\n", student.Name, rec.Status, rec.Date)
	return nil
}
