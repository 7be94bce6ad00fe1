package memory

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aakash670/smart-attendance/internal/database"
)

//go:embed seed.yaml
var demoSeed []byte

// Seed is the document format of seed.yaml.
type Seed struct {
	Users         []database.User    `yaml:"users"`
	Classes       []database.Class   `yaml:"classes"`
	Students      []database.Student `yaml:"students"`
	Notifications []seedNotification `yaml:"notifications"`
	Announcements []seedAnnouncement `yaml:"announcements"`
	History       seedHistory        `yaml:"history"`
}

type seedNotification struct {
	database.Notification `yaml:",inline"`
	Age                   time.Duration `yaml:"age"`
}

type seedAnnouncement struct {
	database.Announcement `yaml:",inline"`
	Age                   time.Duration `yaml:"age"`
}

type seedHistory struct {
	Days        int     `yaml:"days"`
	AbsenceRate float64 `yaml:"absence_rate"`
}

// DemoSeed parses the embedded demo school.
func DemoSeed() (*Seed, error) {
	return ParseSeed(demoSeed)
}

// ParseSeed parses a seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &seed, nil
}

// HistoryAt generates weekday attendance for every seeded student over the
// configured number of days ending at now. The generator is deterministic so
// repeated runs produce the same school.
func (s *Seed) HistoryAt(now time.Time) []database.AttendanceRecord {
	rng := rand.New(rand.NewPCG(42, 1024)) //nolint:gosec // demo data
	var records []database.AttendanceRecord
	for i := 0; i < s.History.Days; i++ {
		date := now.AddDate(0, 0, -i)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		day := database.Day(date)
		for _, st := range s.Students {
			status := database.StatusPresent
			if rng.Float64() < s.History.AbsenceRate {
				status = database.StatusAbsent
			}
			records = append(records, database.AttendanceRecord{
				ID:        st.ID + "-" + day,
				StudentID: st.ID,
				ClassID:   st.ClassID,
				Date:      day,
				Status:    status,
				Timestamp: date,
			})
		}
	}
	return records
}

// NotificationsAt returns the seeded notifications stamped relative to now.
func (s *Seed) NotificationsAt(now time.Time) []database.Notification {
	out := make([]database.Notification, 0, len(s.Notifications))
	for _, n := range s.Notifications {
		item := n.Notification
		item.Timestamp = now.Add(-n.Age)
		out = append(out, item)
	}
	return out
}

// AnnouncementsAt returns the seeded announcements stamped relative to now.
func (s *Seed) AnnouncementsAt(now time.Time) []database.Announcement {
	out := make([]database.Announcement, 0, len(s.Announcements))
	for _, a := range s.Announcements {
		item := a.Announcement
		item.Timestamp = now.Add(-a.Age)
		out = append(out, item)
	}
	return out
}

// Load replaces the store content with the seed, including generated
// history up to and excluding today so sessions start with nobody present.
func (m *Store) Load(seed *Seed, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = make(map[string]database.User, len(seed.Users))
	for _, u := range seed.Users {
		m.users[u.ID] = u
	}
	m.classes = make(map[string]database.Class, len(seed.Classes))
	for _, c := range seed.Classes {
		m.classes[c.ID] = c
	}
	m.students = make(map[string]database.Student, len(seed.Students))
	for _, st := range seed.Students {
		m.students[st.ID] = st
	}

	today := database.Day(now)
	m.attendance = m.attendance[:0]
	for _, rec := range seed.HistoryAt(now) {
		if rec.Date == today {
			continue
		}
		m.attendance = append(m.attendance, rec)
	}
	m.notifications = seed.NotificationsAt(now)
	m.announcements = seed.AnnouncementsAt(now)
}

// Apply writes the seed through any store. Existing rows with the same IDs
// are overwritten. Unlike Load, nothing is cleared first.
func (s *Seed) Apply(ctx context.Context, dst database.Store, now time.Time) error {
	for i := range s.Users {
		if err := dst.SaveUser(ctx, &s.Users[i]); err != nil {
			return fmt.Errorf("saving user %s: %w", s.Users[i].ID, err)
		}
	}
	for i := range s.Classes {
		if err := dst.SaveClass(ctx, &s.Classes[i]); err != nil {
			return fmt.Errorf("saving class %s: %w", s.Classes[i].ID, err)
		}
	}
	for i := range s.Students {
		if err := dst.SaveStudent(ctx, &s.Students[i]); err != nil {
			return fmt.Errorf("saving student %s: %w", s.Students[i].ID, err)
		}
	}

	today := database.Day(now)
	for _, rec := range s.HistoryAt(now) {
		if rec.Date == today {
			continue
		}
		if err := dst.ReplaceForDay(ctx, &rec); err != nil {
			return fmt.Errorf("saving attendance %s: %w", rec.ID, err)
		}
	}

	if err := dst.AddNotifications(ctx, s.NotificationsAt(now)); err != nil {
		return fmt.Errorf("saving notifications: %w", err)
	}
	for _, a := range s.AnnouncementsAt(now) {
		if err := dst.AddAnnouncement(ctx, &a); err != nil {
			return fmt.Errorf("saving announcement %s: %w", a.ID, err)
		}
	}
	return nil
}
