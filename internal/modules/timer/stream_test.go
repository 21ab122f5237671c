package timer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tracktide/core/internal/models"
	"go.uber.org/zap"
)

type payloadCollector struct {
	mu       sync.Mutex
	payloads []streamPayload
	sendErr  error
}

func (p *payloadCollector) send(v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.payloads = append(p.payloads, v.(streamPayload))
	return nil
}

func (p *payloadCollector) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func (p *payloadCollector) at(i int) streamPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloads[i]
}

func (p *payloadCollector) last() streamPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.payloads[len(p.payloads)-1]
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func newTestStream(tick, cacheWindow time.Duration) (*StreamServer, *mockActiveRepo, *mockProjectRepo, *Notifier) {
	active := newMockActiveRepo()
	projects := newMockProjectRepo()
	notifier := NewNotifier()
	srv := NewStreamServer(active, projects, notifier, zap.NewNop(), tick, cacheWindow)
	return srv, active, projects, notifier
}

func TestServeSendsImmediateSnapshot(t *testing.T) {
	srv, _, _, _ := newTestStream(time.Hour, time.Millisecond)
	col := &payloadCollector{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "u1", col.send) }()

	waitFor(t, func() bool { return col.count() >= 1 }, "no snapshot pushed on open")
	first := col.at(0)
	if first.Active {
		t.Errorf("empty register rendered active: %+v", first)
	}
	if first.ElapsedSeconds != 0 {
		t.Errorf("inactive ElapsedSeconds = %d, want 0", first.ElapsedSeconds)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}

func TestSnapshotIncludesProjectSummary(t *testing.T) {
	srv, active, projects, _ := newTestStream(time.Hour, time.Millisecond)
	projects.add(&models.ProjectModel{Base: models.Base{ID: "p1"}, UserID: "u1", Name: "Deep Work", Color: "#ff8800"})
	if err := active.Upsert(&models.ActiveSessionModel{
		UserID: "u1", StartTime: time.Now().Add(-42 * time.Second),
		Mode: models.ModeTimer, ProjectID: strPtr("p1"), TargetDuration: int64Ptr(600),
	}); err != nil {
		t.Fatal(err)
	}

	col := &payloadCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, "u1", col.send) }()

	waitFor(t, func() bool { return col.count() >= 1 }, "no snapshot pushed on open")
	got := col.at(0)
	if !got.Active {
		t.Fatal("active session rendered inactive")
	}
	if got.ElapsedSeconds < 41 || got.ElapsedSeconds > 43 {
		t.Errorf("ElapsedSeconds = %d, want ~42", got.ElapsedSeconds)
	}
	if got.Project == nil || got.Project.Name != "Deep Work" || got.Project.Color != "#ff8800" {
		t.Errorf("project summary not joined: %+v", got.Project)
	}
}

func TestTickRecomputesWithoutQuerying(t *testing.T) {
	srv, active, _, _ := newTestStream(5*time.Millisecond, time.Millisecond)
	if err := active.Upsert(&models.ActiveSessionModel{
		UserID: "u1", StartTime: time.Now(), Mode: models.ModeStopwatch,
	}); err != nil {
		t.Fatal(err)
	}

	col := &payloadCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, "u1", col.send) }()

	waitFor(t, func() bool { return col.count() >= 5 }, "ticks did not push")
	if got := active.getCalls(); got != 1 {
		t.Errorf("store queried %d times, want 1 (ticks must use cached state)", got)
	}
	if !col.last().Active {
		t.Error("tick push lost active state")
	}
}

func TestEventTriggersFreshRead(t *testing.T) {
	srv, active, _, notifier := newTestStream(time.Hour, time.Nanosecond)
	if err := active.Upsert(&models.ActiveSessionModel{
		UserID: "u1", StartTime: time.Now(), Mode: models.ModeStopwatch,
	}); err != nil {
		t.Fatal(err)
	}

	col := &payloadCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, "u1", col.send) }()
	waitFor(t, func() bool { return col.count() >= 1 }, "no snapshot pushed on open")

	// Mutate the register, then publish: the push must reflect post-write state.
	if err := active.Upsert(&models.ActiveSessionModel{
		UserID: "u1", StartTime: time.Now(), Mode: models.ModePomodoro,
	}); err != nil {
		t.Fatal(err)
	}
	notifier.Publish("u1")

	waitFor(t, func() bool { return col.count() >= 2 }, "event did not push")
	if got := col.last().Mode; got != models.ModePomodoro {
		t.Errorf("event push Mode = %q, want post-write %q", got, models.ModePomodoro)
	}
	if got := active.getCalls(); got != 2 {
		t.Errorf("store queried %d times, want 2 (one open, one event)", got)
	}
}

func TestRapidEventsCollapseToCachedRead(t *testing.T) {
	srv, active, _, notifier := newTestStream(time.Hour, time.Hour)
	if err := active.Upsert(&models.ActiveSessionModel{
		UserID: "u1", StartTime: time.Now(), Mode: models.ModeStopwatch,
	}); err != nil {
		t.Fatal(err)
	}

	col := &payloadCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx, "u1", col.send) }()
	waitFor(t, func() bool { return col.count() >= 1 }, "no snapshot pushed on open")

	notifier.Publish("u1")
	notifier.Publish("u1")

	waitFor(t, func() bool { return col.count() >= 3 }, "events did not push")
	if got := active.getCalls(); got != 1 {
		t.Errorf("store queried %d times, want 1 (reads inside window must collapse)", got)
	}
}

func TestTeardownUnsubscribes(t *testing.T) {
	srv, _, _, notifier := newTestStream(time.Hour, time.Millisecond)
	col := &payloadCollector{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, "u1", col.send) }()
	waitFor(t, func() bool { return notifier.SubscriberCount("u1") == 1 }, "not subscribed")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
	if got := notifier.SubscriberCount("u1"); got != 0 {
		t.Errorf("SubscriberCount after teardown = %d, want 0", got)
	}
}

func TestSendFailureEndsStreamQuietly(t *testing.T) {
	srv, _, _, notifier := newTestStream(time.Hour, time.Millisecond)
	col := &payloadCollector{sendErr: errors.New("connection gone")}

	done := make(chan error, 1)
	go func() { done <- srv.Serve(context.Background(), "u1", col.send) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("push failure escalated: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not end after push failure")
	}
	if got := notifier.SubscriberCount("u1"); got != 0 {
		t.Errorf("SubscriberCount after failed push = %d, want 0", got)
	}
}
