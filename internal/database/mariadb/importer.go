package mariadb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
)

// RosterSource lists the classes and students of a school.
type RosterSource interface {
	ListClasses(ctx context.Context) ([]database.Class, error)
	ListStudents(ctx context.Context) ([]database.Student, error)
}

// RosterTarget receives imported classes and students.
type RosterTarget interface {
	database.ClassWriter
	database.StudentWriter
}

// ImportStats summarizes a roster import.
type ImportStats struct {
	Classes   int
	Created   int
	Updated   int
	Skipped   int
	Conflicts []string
}

// ImportOptions controls a roster import.
type ImportOptions struct {
	// ClassID limits the import to one class when set.
	ClassID string
	// DryRun reports what would change without writing.
	DryRun bool
}

func cleanName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// Import copies classes and students from src into dst. Existing students keep
// their face descriptors. A new student whose name matches another student of
// the same class under a different ID is reported as a conflict and skipped.
func Import(ctx context.Context, src RosterSource, dst RosterTarget, opts ImportOptions) (*ImportStats, error) {
	classes, err := src.ListClasses(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading classes: %w", err)
	}
	students, err := src.ListStudents(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading students: %w", err)
	}

	stats := &ImportStats{}
	known := make(map[string]bool, len(classes))
	for i := range classes {
		c := classes[i]
		if opts.ClassID != "" && c.ID != opts.ClassID {
			continue
		}
		c.Name = cleanName(c.Name)
		known[c.ID] = true
		stats.Classes++
		if opts.DryRun {
			continue
		}
		if err := dst.SaveClass(ctx, &c); err != nil {
			return stats, fmt.Errorf("saving class %s: %w", c.ID, err)
		}
	}

	// Normalized names of the students already stored, per class.
	existing := make(map[string]map[string]string)
	for classID := range known {
		current, err := dst.ListStudentsByClass(ctx, classID)
		if err != nil {
			return stats, fmt.Errorf("listing students of %s: %w", classID, err)
		}
		names := make(map[string]string, len(current))
		for _, st := range current {
			names[facematch.NormalizeName(st.Name)] = st.ID
		}
		existing[classID] = names
	}

	for i := range students {
		st := students[i]
		st.Name = cleanName(st.Name)
		if st.Name == "" || !known[st.ClassID] {
			stats.Skipped++
			continue
		}

		_, getErr := dst.GetStudent(ctx, st.ID)
		if getErr != nil && !errors.Is(getErr, database.ErrNotFound) {
			return stats, fmt.Errorf("looking up student %s: %w", st.ID, getErr)
		}
		isNew := getErr != nil
		key := facematch.NormalizeName(st.Name)
		if other, ok := existing[st.ClassID][key]; ok && other != st.ID && isNew {
			stats.Conflicts = append(stats.Conflicts, fmt.Sprintf("%s (%s) matches existing student %s", st.Name, st.ID, other))
			stats.Skipped++
			continue
		}
		existing[st.ClassID][key] = st.ID

		if isNew {
			stats.Created++
		} else {
			stats.Updated++
		}
		if opts.DryRun {
			continue
		}
		st.Descriptor = nil
		if err := dst.SaveStudent(ctx, &st); err != nil {
			return stats, fmt.Errorf("saving student %s: %w", st.ID, err)
		}
	}

	log.Printf("Roster import: %d classes, %d created, %d updated, %d skipped", stats.Classes, stats.Created, stats.Updated, stats.Skipped)
	return stats, nil
}
