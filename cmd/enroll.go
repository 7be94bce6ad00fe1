package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/aakash670/smart-attendance/internal/config"
	"github.com/aakash670/smart-attendance/internal/constants"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [student-id image]",
	Short: "Enroll student faces from photos",
	Long: `Store a reference face descriptor for students.

With a student ID and an image path, the best face of the image is enrolled
for that student. With --dir, every image in the directory is matched to a
student of --class by its filename and enrolled in parallel. Filenames are
either the student's name ("rohan-kumar.jpg") or the roll number followed by
the name ("5A-01_rohan-kumar.jpg").`,
	Args: func(cmd *cobra.Command, args []string) error {
		if mustGetString(cmd, "dir") != "" {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("dir", "", "Directory of enrollment photos")
	enrollCmd.Flags().String("class", "", "Class whose students are enrolled from --dir")
	enrollCmd.Flags().Int("concurrency", constants.WorkerPoolSize, "Number of parallel workers")
	enrollCmd.Flags().Bool("overwrite", false, "Re-enroll students who already have a descriptor")
}

// enrollJob is one photo matched to a student.
type enrollJob struct {
	path    string
	student database.Student
}

func isEnrollImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.Contains(strings.Split(constants.EnrollImageExtensions, ","), ext)
}

// matchEnrollFiles pairs image files with class students by normalized name
// or roll number. Files that match nobody are returned separately.
func matchEnrollFiles(files []string, students []database.Student) (jobs []enrollJob, unmatched []string) {
	byName := make(map[string]database.Student, len(students))
	byRoll := make(map[string]database.Student, len(students))
	for _, st := range students {
		byName[facematch.NormalizeName(st.Name)] = st
		if st.RollNumber != "" {
			byRoll[strings.ToUpper(st.RollNumber)] = st
		}
	}

	for _, path := range files {
		name, roll := facematch.NameFromFilename(path)
		if st, ok := byRoll[roll]; ok && roll != "" {
			jobs = append(jobs, enrollJob{path: path, student: st})
			continue
		}
		if st, ok := byName[name]; ok {
			jobs = append(jobs, enrollJob{path: path, student: st})
			continue
		}
		unmatched = append(unmatched, path)
	}
	return jobs, unmatched
}

func listEnrollImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isEnrollImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	store, err := openStore(ctx, cmd, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	descriptors := facematch.NewDescriptorStore(store, cfg.Vision.Dim)
	detector := newVisionClient(cfg)
	if err := detector.LoadModels(ctx); err != nil {
		return fmt.Errorf("face embedding server not ready: %w", err)
	}

	dir := mustGetString(cmd, "dir")
	if dir == "" {
		return enrollOne(ctx, descriptors, detector, args[0], args[1])
	}

	classID := mustGetString(cmd, "class")
	if classID == "" {
		return errors.New("--class is required with --dir")
	}
	return enrollDir(ctx, cmd, store, descriptors, detector, classID, dir)
}

func enrollOne(ctx context.Context, descriptors *facematch.DescriptorStore, detector facematch.FaceDetector, studentID, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is a CLI argument
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	descriptor, err := descriptors.EnrollFromImage(ctx, detector, studentID, data)
	if err != nil {
		return fmt.Errorf("enrolling %s: %w", studentID, err)
	}
	fmt.Printf("Enrolled %s (%d-dimensional descriptor)\n", studentID, len(descriptor))
	return nil
}

func enrollDir(
	ctx context.Context, cmd *cobra.Command, store database.Store,
	descriptors *facematch.DescriptorStore, detector facematch.FaceDetector, classID, dir string,
) error {
	concurrency := mustGetInt(cmd, "concurrency")
	overwrite := mustGetBool(cmd, "overwrite")
	if concurrency < 1 {
		concurrency = 1
	}

	if _, err := store.GetClass(ctx, classID); err != nil {
		return fmt.Errorf("class %s: %w", classID, err)
	}
	students, err := store.ListStudentsByClass(ctx, classID)
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}
	files, err := listEnrollImages(dir)
	if err != nil {
		return err
	}

	jobs, unmatched := matchEnrollFiles(files, students)
	for _, path := range unmatched {
		fmt.Printf("No student of %s matches %s\n", classID, filepath.Base(path))
	}
	var skipped int
	if !overwrite {
		jobs = slices.DeleteFunc(jobs, func(j enrollJob) bool {
			if j.student.Enrolled() {
				skipped++
				return true
			}
			return false
		})
	}
	if len(jobs) == 0 {
		fmt.Printf("Nothing to enroll (%d photos, %d already enrolled)\n", len(files), skipped)
		return nil
	}

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var (
		mu       sync.Mutex
		enrolled int
		failures []string
	)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		go func(job enrollJob) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := os.ReadFile(job.path) //nolint:gosec // path comes from the enrollment directory
			if err == nil {
				_, err = descriptors.EnrollFromImage(ctx, detector, job.student.ID, data)
			}

			mu.Lock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(job.path), err))
			} else {
				enrolled++
			}
			mu.Unlock()
			bar.Add(1)
		}(job)
	}
	wg.Wait()
	fmt.Println()

	for _, f := range failures {
		fmt.Printf("  failed %s\n", f)
	}
	fmt.Printf("Enrolled %d students, %d failed, %d already enrolled, %d unmatched photos\n",
		enrolled, len(failures), skipped, len(unmatched))
	return nil
}
