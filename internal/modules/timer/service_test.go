package timer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tracktide/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mockActiveRepo is a map-backed ActiveSessionRepository.
type mockActiveRepo struct {
	mu         sync.Mutex
	slots      map[string]*models.ActiveSessionModel
	history    []*models.SessionModel
	upsertErr  error
	promoteErr error
	gets       int
}

func newMockActiveRepo() *mockActiveRepo {
	return &mockActiveRepo{slots: make(map[string]*models.ActiveSessionModel)}
}

func (m *mockActiveRepo) Get(userID string) (*models.ActiveSessionModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	slot, ok := m.slots[userID]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (m *mockActiveRepo) Upsert(record *models.ActiveSessionModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if record.ID == "" {
		record.ID = "active-" + record.UserID
	}
	cp := *record
	m.slots[record.UserID] = &cp
	return nil
}

func (m *mockActiveRepo) Delete(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.slots, userID)
	return nil
}

func (m *mockActiveRepo) Promote(userID string, record *models.SessionModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.promoteErr != nil {
		return m.promoteErr
	}
	if _, ok := m.slots[userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *record
	m.history = append(m.history, &cp)
	delete(m.slots, userID)
	return nil
}

func (m *mockActiveRepo) getCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

func (m *mockActiveRepo) slot(userID string) *models.ActiveSessionModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[userID]
	if !ok {
		return nil
	}
	cp := *slot
	return &cp
}

func (m *mockActiveRepo) historyLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// mockProjectRepo is a map-backed ProjectRepository.
type mockProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*models.ProjectModel // by id
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*models.ProjectModel)}
}

func (m *mockProjectRepo) add(p *models.ProjectModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
}

func (m *mockProjectRepo) GetOwned(userID, projectID string) (*models.ProjectModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func newTestService() (*Service, *mockActiveRepo, *mockProjectRepo, *Notifier) {
	active := newMockActiveRepo()
	projects := newMockProjectRepo()
	notifier := NewNotifier()
	svc := NewService(active, projects, notifier, zap.NewNop())
	return svc, active, projects, notifier
}

func drain(ch <-chan struct{}) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }

func TestStartCreatesSlot(t *testing.T) {
	svc, active, _, notifier := newTestService()
	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	got, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeStopwatch, Description: "   "})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got.Mode != models.ModeStopwatch {
		t.Errorf("Mode = %q", got.Mode)
	}
	if got.Description != nil {
		t.Errorf("blank description not normalized to absent: %v", *got.Description)
	}
	if active.slot("u1") == nil {
		t.Fatal("no slot stored")
	}
	if n := drain(events); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}

func TestStartInvalidMode(t *testing.T) {
	svc, active, _, _ := newTestService()

	_, err := svc.Start("u1", &StartTimerDTO{Mode: "countdown"})
	if !errors.Is(err, errInvalidMode) {
		t.Fatalf("err = %v, want errInvalidMode", err)
	}
	if active.slot("u1") != nil {
		t.Error("slot stored despite invalid mode")
	}
}

func TestStartRejectsForeignProject(t *testing.T) {
	svc, _, projects, _ := newTestService()
	projects.add(&models.ProjectModel{Base: models.Base{ID: "p1"}, UserID: "other", Name: "theirs"})

	_, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeTimer, ProjectID: strPtr("p1")})
	if !errors.Is(err, errProjectNotFound) {
		t.Fatalf("err = %v, want errProjectNotFound", err)
	}
}

func TestStartReplacesExistingSlot(t *testing.T) {
	svc, active, _, notifier := newTestService()
	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeStopwatch, Description: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModePomodoro, Description: "second", TargetDuration: int64Ptr(1500)}); err != nil {
		t.Fatal(err)
	}

	slot := active.slot("u1")
	if slot == nil {
		t.Fatal("no slot after replace")
	}
	if slot.Mode != models.ModePomodoro || slot.Description == nil || *slot.Description != "second" {
		t.Errorf("replace did not fully win: %+v", slot)
	}
	if slot.TargetDuration == nil || *slot.TargetDuration != 1500 {
		t.Errorf("TargetDuration = %v", slot.TargetDuration)
	}
	if n := drain(events); n != 2 {
		t.Errorf("notifications = %d, want 2", n)
	}
}

func TestUpdatePomodoroCycleInPlace(t *testing.T) {
	svc, _, _, _ := newTestService()

	phase := models.PhaseWork
	if _, err := svc.Start("u1", &StartTimerDTO{
		Mode: models.ModePomodoro, TargetDuration: int64Ptr(1500), PomodoroPhase: &phase,
	}); err != nil {
		t.Fatal(err)
	}

	cur, err := svc.Current("u1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.PomodoroCycle != 0 {
		t.Errorf("initial cycle = %d, want 0", cur.PomodoroCycle)
	}

	if _, err := svc.Update("u1", &UpdateTimerDTO{PomodoroCycle: intPtr(1)}); err != nil {
		t.Fatal(err)
	}

	cur, err = svc.Current("u1")
	if err != nil {
		t.Fatal(err)
	}
	if cur.PomodoroCycle != 1 {
		t.Errorf("cycle = %d, want 1", cur.PomodoroCycle)
	}
	if cur.Mode != models.ModePomodoro || cur.TargetDuration == nil || *cur.TargetDuration != 1500 {
		t.Errorf("update dropped unrelated fields: %+v", cur)
	}
}

func TestUpdateWithoutActiveSession(t *testing.T) {
	svc, _, _, _ := newTestService()
	if _, err := svc.Update("u1", &UpdateTimerDTO{PomodoroCycle: intPtr(1)}); !errors.Is(err, errNoActiveSession) {
		t.Fatalf("err = %v, want errNoActiveSession", err)
	}
}

func TestStopPromotes(t *testing.T) {
	svc, active, _, notifier := newTestService()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModePomodoro, Description: "deep work"}); err != nil {
		t.Fatal(err)
	}

	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	svc.now = func() time.Time { return start.Add(10 * time.Second) }
	record, err := svc.Stop("u1")
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if record.Duration != 10 {
		t.Errorf("Duration = %d, want 10", record.Duration)
	}
	if record.Mode != models.ModePomodoro {
		t.Errorf("Mode = %q", record.Mode)
	}
	if !record.StartTime.Equal(start) || !record.EndTime.Equal(start.Add(10*time.Second)) {
		t.Errorf("times not copied: start=%v end=%v", record.StartTime, record.EndTime)
	}
	if active.slot("u1") != nil {
		t.Error("slot not cleared after promotion")
	}
	if active.historyLen() != 1 {
		t.Errorf("history = %d records, want 1", active.historyLen())
	}
	if n := drain(events); n != 1 {
		t.Errorf("notifications = %d, want exactly 1", n)
	}
}

func TestStopWithoutActiveSession(t *testing.T) {
	svc, active, _, notifier := newTestService()
	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	_, err := svc.Stop("u1")
	if !errors.Is(err, errNoActiveSession) {
		t.Fatalf("err = %v, want errNoActiveSession", err)
	}
	if active.historyLen() != 0 {
		t.Error("history written on failed stop")
	}
	if n := drain(events); n != 0 {
		t.Errorf("notifications = %d, want 0", n)
	}
}

func TestStopCreateFailureKeepsSlot(t *testing.T) {
	svc, active, _, notifier := newTestService()

	start := time.Now().Add(-time.Minute)
	svc.now = func() time.Time { return start }
	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeTimer}); err != nil {
		t.Fatal(err)
	}
	svc.now = time.Now

	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	active.promoteErr = errors.New("storage down")
	if _, err := svc.Stop("u1"); err == nil {
		t.Fatal("Stop() succeeded despite promote failure")
	}

	if active.slot("u1") == nil {
		t.Error("slot lost although promotion failed")
	}
	if active.historyLen() != 0 {
		t.Error("partial history written")
	}
	if n := drain(events); n != 0 {
		t.Errorf("notifications = %d, want 0 on failure", n)
	}
}

func TestStopNonPositiveElapsedClearsSlot(t *testing.T) {
	svc, active, _, notifier := newTestService()

	start := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeStopwatch}); err != nil {
		t.Fatal(err)
	}

	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	// Same instant: elapsed == 0. Cleanup happens, history does not.
	_, err := svc.Stop("u1")
	if !errors.Is(err, errInvalidDuration) {
		t.Fatalf("err = %v, want errInvalidDuration", err)
	}
	if active.slot("u1") != nil {
		t.Error("slot not discarded on non-positive elapsed")
	}
	if active.historyLen() != 0 {
		t.Error("history written for non-positive elapsed")
	}
	if n := drain(events); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}
}

func TestCancelDiscardsSlot(t *testing.T) {
	svc, active, _, notifier := newTestService()
	if _, err := svc.Start("u1", &StartTimerDTO{Mode: models.ModeStopwatch}); err != nil {
		t.Fatal(err)
	}

	events, cancel := notifier.Subscribe("u1")
	defer cancel()

	if err := svc.Cancel("u1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if active.slot("u1") != nil {
		t.Error("slot survived cancel")
	}
	if active.historyLen() != 0 {
		t.Error("cancel wrote history")
	}
	if n := drain(events); n != 1 {
		t.Errorf("notifications = %d, want 1", n)
	}

	if err := svc.Cancel("u1"); !errors.Is(err, errNoActiveSession) {
		t.Fatalf("second Cancel err = %v, want errNoActiveSession", err)
	}
}

func TestConcurrentStartsLastWriterWinsWholeRecord(t *testing.T) {
	svc, active, _, _ := newTestService()

	a := &StartTimerDTO{Mode: models.ModeTimer, Description: "payload-a", TargetDuration: int64Ptr(600)}
	b := &StartTimerDTO{Mode: models.ModePomodoro, Description: "payload-b", TargetDuration: int64Ptr(1500)}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _, _ = svc.Start("u1", a) }()
	go func() { defer wg.Done(); _, _ = svc.Start("u1", b) }()
	wg.Wait()

	slot := active.slot("u1")
	if slot == nil {
		t.Fatal("no slot after concurrent starts")
	}
	isA := slot.Mode == models.ModeTimer && slot.Description != nil && *slot.Description == "payload-a" &&
		slot.TargetDuration != nil && *slot.TargetDuration == 600
	isB := slot.Mode == models.ModePomodoro && slot.Description != nil && *slot.Description == "payload-b" &&
		slot.TargetDuration != nil && *slot.TargetDuration == 1500
	if !isA && !isB {
		t.Errorf("slot is a field merge, not one whole payload: %+v", slot)
	}
}
