// Package session drives a scanning session: model loading, camera, frame
// scans and reconciliation of recognized students against the class roster.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aakash670/smart-attendance/internal/camera"
	"github.com/aakash670/smart-attendance/internal/database"
	"github.com/aakash670/smart-attendance/internal/facematch"
	"github.com/aakash670/smart-attendance/internal/roster"
	"github.com/aakash670/smart-attendance/internal/vision"
)

var (
	// ErrModelLoad is returned when the vision models cannot be loaded.
	ErrModelLoad = errors.New("could not load face models")
	// ErrNoMatchableStudents is returned when no student of the class has a descriptor.
	ErrNoMatchableStudents = errors.New("nothing to scan: no students have enrolled faces")
	// ErrScanInProgress is returned when a scan is requested while one is running.
	ErrScanInProgress = errors.New("a scan is already in progress")
	// ErrNothingPending is returned when every student is already present.
	ErrNothingPending = errors.New("all students are already marked present")
	// ErrStopped is returned for operations on a stopped session.
	ErrStopped = errors.New("session stopped")
	// ErrInvalidTransition is returned when an operation is not allowed in the current state.
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrInvalidMode is returned for an unknown session mode.
	ErrInvalidMode = errors.New("invalid session mode")
)

// DescriptorSource provides the reference descriptors of a class.
type DescriptorSource interface {
	DescriptorsForClass(ctx context.Context, classID string) ([]facematch.LabeledDescriptor, error)
}

// Deps are the collaborators of a session.
type Deps struct {
	Detector    vision.Detector
	Camera      camera.Device
	Descriptors DescriptorSource
	Students    database.StudentReader
	Attendance  database.AttendanceReader
	Marker      roster.Marker
	NewMatcher  facematch.MatcherFactory
	Threshold   float64
	Now         func() time.Time
}

// StudentSummary is the public view of a roster entry.
type StudentSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	RollNumber string `json:"roll_number"`
	PhotoURL   string `json:"photo_url,omitempty"`
}

// ScanResult is the outcome for one face of a scanned frame.
type ScanResult struct {
	Label       string         `json:"label"`
	StudentID   string         `json:"student_id,omitempty"`
	StudentName string         `json:"student_name,omitempty"`
	Distance    float64        `json:"distance"`
	Outcome     roster.Outcome `json:"outcome"`
	BBox        []float64      `json:"bbox,omitempty"`
}

// ScanReport summarizes one scan.
type ScanReport struct {
	Faces    int          `json:"faces"`
	Results  []ScanResult `json:"results"`
	Status   string       `json:"status"`
	Complete bool         `json:"complete"`
}

// Snapshot is a consistent view of a session.
type Snapshot struct {
	ID        string            `json:"id"`
	ClassID   string            `json:"class_id"`
	Mode      roster.Mode       `json:"mode"`
	State     State             `json:"state"`
	Status    string            `json:"status"`
	Error     string            `json:"error,omitempty"`
	Retryable bool              `json:"retryable"`
	Ended     bool              `json:"ended"`
	Complete  bool              `json:"complete"`
	Pending   []StudentSummary  `json:"pending"`
	Resolved  []StudentSummary  `json:"resolved"`
	Log       []roster.LogEntry `json:"log"`
	LastScan  []ScanResult      `json:"last_scan,omitempty"`
	StartedAt time.Time         `json:"started_at"`
}

// Session is one scanning session of a class.
type Session struct {
	Broadcaster

	id        string
	classID   string
	mode      roster.Mode
	deps      Deps
	startedAt time.Time

	mu         sync.Mutex
	state      State
	status     string
	err        error
	ended      bool
	retryable  bool
	opening    bool
	stream     camera.Stream
	matcher    facematch.Matcher
	roster     *roster.State
	reconciler *roster.Reconciler
	lastScan   []ScanResult
}

// New creates an idle session.
func New(classID string, mode roster.Mode, deps Deps) (*Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewMatcher == nil {
		deps.NewMatcher = facematch.NewMatcher
	}
	if deps.Threshold <= 0 {
		deps.Threshold = facematch.DefaultDistanceThreshold
	}
	return &Session{
		id:        uuid.NewString(),
		classID:   classID,
		mode:      mode,
		deps:      deps,
		startedAt: deps.Now(),
		state:     StateIdle,
		status:    StatusIdle,
	}, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// ClassID returns the class being scanned.
func (s *Session) ClassID() string { return s.classID }

// Mode returns the session mode.
func (s *Session) Mode() roster.Mode { return s.mode }

// Camera returns the device the session reads frames from.
func (s *Session) Camera() camera.Device { return s.deps.Camera }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ended reports whether the session was stopped.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Live reports whether the session still holds its class: it has not been
// stopped and has not failed terminally.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended && (s.state != StateError || s.retryable)
}

// transition applies e. Callers hold s.mu.
func (s *Session) transition(e Event) error {
	to, ok := next(s.state, e)
	if !ok {
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s.state)
	}
	s.state = to
	return nil
}

// setStatus updates the status and notifies listeners. Callers hold s.mu.
func (s *Session) setStatus(status string) {
	s.status = status
	s.SendEvent(Notice{Type: EventTypeState, Message: status, Data: s.snapshotLocked()})
}

// fail moves to Error. Callers hold s.mu.
func (s *Session) fail(e Event, err error, status string, retryable bool) {
	if terr := s.transition(e); terr != nil {
		s.state = StateError
	}
	s.err = err
	s.retryable = retryable
	log.Printf("Session %s (class %s): %v", s.id, s.classID, err)
	s.setStatus(status)
}

// Start loads the models and builds the roster. With no enrolled students the
// session fails without ever opening the camera.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return ErrStopped
	}
	if err := s.transition(EventStart); err != nil {
		s.mu.Unlock()
		return err
	}
	s.setStatus(StatusLoadingModels)
	s.mu.Unlock()

	loadErr := s.deps.Detector.LoadModels(ctx)

	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return ErrStopped
	}
	if loadErr != nil {
		err := fmt.Errorf("%w: %w", ErrModelLoad, loadErr)
		s.fail(EventModelsFailed, err, StatusModelLoadFailed, false)
		s.mu.Unlock()
		return err
	}
	_ = s.transition(EventModelsLoaded)
	s.setStatus(StatusModelsLoaded)
	s.mu.Unlock()

	matcher, state, buildErr := s.buildRoster(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrStopped
	}
	if buildErr != nil {
		status := StatusRosterFailed
		if errors.Is(buildErr, ErrNoMatchableStudents) {
			status = StatusNoEnrolled
		}
		s.fail(EventRosterFailed, buildErr, status, false)
		return buildErr
	}
	s.matcher = matcher
	s.roster = state
	s.reconciler = roster.NewReconciler(state, s.deps.Marker, s.deps.Now)
	_ = s.transition(EventRosterReady)
	log.Printf("Session %s (class %s, %s): %d pending, %d present", s.id, s.classID, s.mode, len(state.Pending()), len(state.Resolved()))
	s.setStatus(StatusReady)
	return nil
}

// buildRoster snapshots the class descriptors and today's attendance.
func (s *Session) buildRoster(ctx context.Context) (facematch.Matcher, *roster.State, error) {
	refs, err := s.deps.Descriptors.DescriptorsForClass(ctx, s.classID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading descriptors: %w", err)
	}
	if len(refs) == 0 {
		return nil, nil, ErrNoMatchableStudents
	}
	matcher, err := s.deps.NewMatcher(refs, s.deps.Threshold)
	if err != nil {
		if errors.Is(err, facematch.ErrNoReferences) {
			return nil, nil, ErrNoMatchableStudents
		}
		return nil, nil, fmt.Errorf("building matcher: %w", err)
	}

	students, err := s.deps.Students.ListStudentsByClass(ctx, s.classID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing students: %w", err)
	}
	today, err := s.deps.Attendance.GetForClassByDate(ctx, s.classID, database.Day(s.deps.Now()))
	if err != nil {
		return nil, nil, fmt.Errorf("loading today's attendance: %w", err)
	}
	pending, resolved := roster.Partition(s.mode, students, today)
	return matcher, roster.NewState(s.classID, pending, resolved), nil
}

// StartCamera opens the camera. After a camera failure it may be called again.
func (s *Session) StartCamera(ctx context.Context) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return ErrStopped
	}
	allowed := s.state == StateCameraOff || (s.state == StateError && s.retryable)
	if !allowed || s.opening {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: start camera on %s", ErrInvalidTransition, state)
	}
	s.opening = true
	s.setStatus(StatusStartingCamera)
	s.mu.Unlock()

	stream, openErr := s.deps.Camera.Open(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opening = false
	if s.ended {
		if stream != nil {
			stream.Stop()
		}
		return ErrStopped
	}
	if openErr != nil {
		s.fail(EventCameraFailed, openErr, cameraErrorStatus(openErr), true)
		return openErr
	}
	s.stream = stream
	s.err = nil
	s.retryable = false
	_ = s.transition(EventCameraStarted)
	s.setStatus(cameraOnStatus(s.mode))
	return nil
}

// Scan grabs a frame, detects faces and reconciles every recognized student.
// Kiosk sessions reconcile every face; live sessions only the best one.
// Detection runs unlocked; results are committed only while still scanning.
func (s *Session) Scan(ctx context.Context) (*ScanReport, error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, ErrStopped
	}
	if s.state == StateScanning {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}
	if s.state == StateCameraOn && s.roster.Complete() {
		s.mu.Unlock()
		return nil, ErrNothingPending
	}
	if err := s.transition(EventScanStarted); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.setStatus(scanningStatus(s.mode))
	stream := s.stream
	s.mu.Unlock()

	faces, detectErr := s.detect(ctx, stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.state != StateScanning {
		return nil, ErrStopped
	}
	_ = s.transition(EventScanFinished)

	if detectErr != nil {
		log.Printf("Session %s: scan failed: %v", s.id, detectErr)
		s.setStatus(StatusFrameFailed)
		return nil, fmt.Errorf("scanning frame: %w", detectErr)
	}

	report := s.reconcileLocked(ctx, faces)
	s.lastScan = report.Results
	s.status = report.Status
	s.SendEvent(Notice{Type: EventTypeScan, Message: report.Status, Data: s.snapshotLocked()})
	return report, nil
}

func (s *Session) detect(ctx context.Context, stream camera.Stream) ([]vision.Face, error) {
	frame, err := stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading camera frame: %w", err)
	}
	faces, err := s.deps.Detector.DetectFaces(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("detecting faces: %w", err)
	}
	if s.mode == roster.ModeLive {
		best, ok := vision.BestFace(faces)
		if !ok {
			return nil, nil
		}
		return []vision.Face{best}, nil
	}
	return faces, nil
}

// reconcileLocked matches and commits faces. Callers hold s.mu.
func (s *Session) reconcileLocked(ctx context.Context, faces []vision.Face) *ScanReport {
	report := &ScanReport{Faces: len(faces), Results: make([]ScanResult, 0, len(faces))}
	if len(faces) == 0 {
		report.Status = noFaceStatus(s.mode)
		report.Complete = s.roster.Complete()
		return report
	}

	status := ""
	for _, face := range faces {
		match := s.matcher.FindBestMatch(face.Embedding)
		res, err := s.reconciler.Reconcile(ctx, match)

		result := ScanResult{Label: match.Label, Distance: match.Distance, Outcome: res.Outcome, BBox: face.BBox}
		if res.Student != nil {
			result.StudentID = res.Student.ID
			result.StudentName = res.Student.Name
		}
		report.Results = append(report.Results, result)

		switch res.Outcome {
		case roster.OutcomeMarked:
			log.Printf("Session %s: marked %s present (distance %.3f)", s.id, res.Student.ID, match.Distance)
			status = recognizedStatus(res.Student.Name)
		case roster.OutcomeAlreadyPresent:
			status = alreadyPresentStatus(res.Student.Name)
		case roster.OutcomeWriteFailed:
			log.Printf("Session %s: saving attendance for %s: %v", s.id, res.Student.ID, err)
			status = writeFailedStatus(res.Student.Name)
		}
	}
	if status == "" {
		status = StatusNoRecognized
	}
	report.Status = status
	report.Complete = s.roster.Complete()
	return report
}

// Stop releases the camera and ends the session. A scan still detecting will
// not commit its results.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	if s.stream != nil {
		s.stream.Stop()
		s.stream = nil
	}
	_ = s.transition(EventStop)
	s.status = StatusCameraStopped
	s.SendEvent(Notice{Type: EventTypeEnded, Message: s.status, Data: s.snapshotLocked()})
	s.closeListeners()
	log.Printf("Session %s (class %s) stopped", s.id, s.classID)
}

// Snapshot returns the current view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func summarize(students []database.Student) []StudentSummary {
	out := make([]StudentSummary, len(students))
	for i, st := range students {
		out[i] = StudentSummary{ID: st.ID, Name: st.Name, RollNumber: st.RollNumber, PhotoURL: st.PhotoURL}
	}
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		ClassID:   s.classID,
		Mode:      s.mode,
		State:     s.state,
		Status:    s.status,
		Retryable: s.retryable,
		Ended:     s.ended,
		Pending:   []StudentSummary{},
		Resolved:  []StudentSummary{},
		Log:       []roster.LogEntry{},
		LastScan:  s.lastScan,
		StartedAt: s.startedAt,
	}
	if s.err != nil {
		snap.Error = s.err.Error()
	}
	if s.roster != nil {
		snap.Pending = summarize(s.roster.Pending())
		snap.Resolved = summarize(s.roster.Resolved())
		snap.Log = s.roster.Log()
		snap.Complete = s.roster.Complete()
	}
	return snap
}
