package snapshot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/roster-go/internal/core/domain"
)

// eventRecorder captures every notification of a manager.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
	ch     chan Event
}

func record[R any](m *Manager[R]) *eventRecorder {
	r := &eventRecorder{ch: make(chan Event, 256)}
	m.SubscribeAll(func(ev Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
		select {
		case r.ch <- ev:
		default:
		}
	})
	return r
}

func (r *eventRecorder) waitFor(t *testing.T, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.ch:
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", kind)
			return Event{}
		}
	}
}

func (r *eventRecorder) count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// steppingClock returns a clock that advances one second per call so
// consecutive snapshots never share a file name.
func steppingClock() func() time.Time {
	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local)
	var n atomic.Int64
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func staticSource(students []domain.Student) Source[domain.Student] {
	return func(ctx context.Context) ([]domain.Student, error) {
		return students, nil
	}
}

func newTestManager(t *testing.T, source Source[domain.Student]) (*Manager[domain.Student], string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "backups")
	m, err := NewManager(Config{Dir: dir, Logger: quietLogger(), Now: steppingClock()}, source)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, dir
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager[domain.Student](Config{}, staticSource(nil)); err == nil {
		t.Error("NewManager should require a dir")
	}
	if _, err := NewManager[domain.Student](Config{Dir: t.TempDir()}, nil); err == nil {
		t.Error("NewManager should require a source")
	}
}

func TestManager_StartRejectsInvalidInterval(t *testing.T) {
	m, _ := newTestManager(t, staticSource(nil))

	if err := m.Start(0); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Start(0) error = %v, want ErrInvalidInterval", err)
	}
	if m.IsRunning() {
		t.Error("manager should not run after a rejected Start")
	}
}

func TestManager_StartTwice(t *testing.T) {
	m, _ := newTestManager(t, staticSource(nil))
	rec := record(m)

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()
	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	rec.waitFor(t, EventCompleted, 2*time.Second)

	if n := rec.count(EventStarted); n != 1 {
		t.Errorf("started events = %d, want 1", n)
	}
	if n := rec.count(EventAlreadyRunning); n != 1 {
		t.Errorf("already-running events = %d, want 1", n)
	}
	if !m.IsRunning() {
		t.Error("IsRunning() = false, want true")
	}
}

func TestManager_FirstSnapshotIsImmediate(t *testing.T) {
	m, dir := newTestManager(t, staticSource([]domain.Student{{ID: 1, Name: "Ada", Age: 20}}))
	rec := record(m)

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	ev := rec.waitFor(t, EventCompleted, 2*time.Second)
	if _, err := os.Stat(filepath.Join(dir, ev.Filename)); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	started := rec.waitForRecorded(t, EventStarted)
	if started.Interval != time.Hour {
		t.Errorf("started interval = %v, want 1h", started.Interval)
	}
}

func (r *eventRecorder) waitForRecorded(t *testing.T, kind EventKind) Event {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Kind == kind {
			return ev
		}
	}
	t.Fatalf("no %s event recorded", kind)
	return Event{}
}

func TestManager_SnapshotRoundTrip(t *testing.T) {
	students := []domain.Student{
		{ID: 1, Name: "Ada", Age: 20, Group: "A"},
		{ID: 2, Name: "Lin", Age: 21, Group: "A"},
		{ID: 3, Name: "Sam", Age: 22, Group: "B"},
		{ID: 4, Name: "Kai", Age: 19, Group: "B"},
		{ID: 5, Name: "Noa", Age: 23, Group: "C"},
	}
	m, dir := newTestManager(t, staticSource(students))
	rec := record(m)

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	ev := rec.waitFor(t, EventCompleted, 2*time.Second)
	got, err := ReadFile[domain.Student](filepath.Join(dir, ev.Filename))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(students) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(students))
	}
	for i := range students {
		if got[i] != students[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], students[i])
		}
	}
	if _, err := ParseFileName(ev.Filename); err != nil {
		t.Errorf("completed filename is not canonical: %v", err)
	}
}

func TestManager_OverlapTimeout(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	source := func(ctx context.Context) ([]domain.Student, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil, nil
	}

	m, _ := newTestManager(t, source)
	rec := record(m)

	if err := m.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered

	ev := rec.waitFor(t, EventTimeout, 2*time.Second)
	if !errors.Is(ev.Err, ErrSnapshotTimeout) {
		t.Errorf("timeout event error = %v, want ErrSnapshotTimeout", ev.Err)
	}
	if m.IsRunning() {
		t.Error("IsRunning() = true after forced shutdown")
	}

	select {
	case err := <-m.Fatal():
		if !errors.Is(err, ErrSnapshotTimeout) {
			t.Errorf("fatal error = %v, want ErrSnapshotTimeout", err)
		}
	case <-time.After(time.Second):
		t.Fatal("no error escalated on Fatal()")
	}

	close(release)
	time.Sleep(100 * time.Millisecond)

	if n := rec.count(EventTimeout); n != 1 {
		t.Errorf("timeout events = %d, want 1", n)
	}
	if n := rec.count(EventOverlap); n != DefaultMaxOverlaps-1 {
		t.Errorf("overlap events = %d, want %d", n, DefaultMaxOverlaps-1)
	}
	if n := rec.count(EventCompleted) + rec.count(EventFailed); n != 0 {
		t.Errorf("snapshot notifications after forced stop = %d, want 0", n)
	}
	if st := m.Status(); st.InFlight {
		t.Error("abandoned snapshot should clear the in-flight flag when it returns")
	}
}

func TestManager_FailuresDoNotStopSchedule(t *testing.T) {
	boom := errors.New("store unavailable")
	source := func(ctx context.Context) ([]domain.Student, error) {
		return nil, boom
	}

	m, _ := newTestManager(t, source)
	rec := record(m)

	if err := m.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	first := rec.waitFor(t, EventFailed, 2*time.Second)
	if !errors.Is(first.Err, ErrCollection) || !errors.Is(first.Err, boom) {
		t.Errorf("failed event error = %v, want ErrCollection wrapping cause", first.Err)
	}
	if first.Filename != "" {
		t.Errorf("failed filename = %q, want empty before the name is computed", first.Filename)
	}
	rec.waitFor(t, EventFailed, 2*time.Second)

	if !m.IsRunning() {
		t.Error("transient failures must not stop the schedule")
	}
	if rec.count(EventError) == 0 {
		t.Error("expected error notifications for failed snapshots")
	}
	if rec.count(EventTimeout) != 0 {
		t.Error("failed snapshots must not count as overlaps")
	}
}

func TestManager_DirectoryFailureIsReported(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := NewManager(Config{Dir: filepath.Join(blocker, "backups"), Logger: quietLogger()}, staticSource(nil))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	rec := record(m)

	if err := m.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	ev := rec.waitFor(t, EventFailed, 2*time.Second)
	if ev.Err == nil {
		t.Error("failed event should carry the directory error")
	}
}

func TestManager_StopWhenNotRunning(t *testing.T) {
	m, _ := newTestManager(t, staticSource(nil))
	rec := record(m)

	m.Stop()

	if n := rec.count(EventNotRunning); n != 1 {
		t.Errorf("not-running events = %d, want 1", n)
	}
	if n := rec.count(EventStopped); n != 0 {
		t.Errorf("stopped events = %d, want 0", n)
	}
}

func TestManager_StopLetsInFlightFinish(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	source := func(ctx context.Context) ([]domain.Student, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return []domain.Student{{ID: 1, Name: "Ada", Age: 20}}, nil
	}

	m, _ := newTestManager(t, source)
	rec := record(m)

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered

	m.Stop()
	rec.waitFor(t, EventStopped, time.Second)
	if m.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}

	close(release)
	rec.waitFor(t, EventCompleted, 2*time.Second)
}

func TestManager_RestartAfterStop(t *testing.T) {
	m, _ := newTestManager(t, staticSource(nil))
	rec := record(m)

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec.waitFor(t, EventCompleted, 2*time.Second)
	m.Stop()

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer m.Stop()
	rec.waitFor(t, EventCompleted, 2*time.Second)

	if n := rec.count(EventStarted); n != 2 {
		t.Errorf("started events = %d, want 2", n)
	}
}

func TestManager_Trigger(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	source := func(ctx context.Context) ([]domain.Student, error) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil, nil
	}

	m, _ := newTestManager(t, source)
	rec := record(m)

	if err := m.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	<-entered

	if err := m.Trigger(); !errors.Is(err, ErrSnapshotInFlight) {
		t.Errorf("second Trigger error = %v, want ErrSnapshotInFlight", err)
	}

	close(release)
	rec.waitFor(t, EventCompleted, 2*time.Second)

	if m.IsRunning() {
		t.Error("Trigger must not arm the schedule")
	}
}

func TestManager_SameSecondSnapshotFails(t *testing.T) {
	fixed := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.Local)
	dir := t.TempDir()
	m, err := NewManager(Config{
		Dir:    dir,
		Logger: quietLogger(),
		Now:    func() time.Time { return fixed },
	}, staticSource(nil))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	rec := record(m)

	if err := m.Trigger(); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	rec.waitFor(t, EventCompleted, 2*time.Second)

	if err := m.Trigger(); err != nil {
		t.Fatalf("second Trigger: %v", err)
	}
	ev := rec.waitFor(t, EventFailed, 2*time.Second)
	if !errors.Is(ev.Err, ErrSnapshotExists) {
		t.Errorf("failed error = %v, want ErrSnapshotExists", ev.Err)
	}
	if ev.Filename != FileName(fixed) {
		t.Errorf("failed filename = %q, want %q", ev.Filename, FileName(fixed))
	}
}

func TestManager_SubscribePerChannel(t *testing.T) {
	m, _ := newTestManager(t, staticSource(nil))

	var stopped, started atomic.Int32
	m.Subscribe(EventStopped, func(Event) { stopped.Add(1) })
	m.Subscribe(EventStarted, func(Event) { started.Add(1) })

	if err := m.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m.Stop()
	m.Stop()

	if started.Load() != 1 || stopped.Load() != 1 {
		t.Errorf("started=%d stopped=%d, want 1 and 1", started.Load(), stopped.Load())
	}
}

func TestEventKind_String(t *testing.T) {
	if EventAlreadyRunning.String() != "already-running" {
		t.Errorf("String() = %q", EventAlreadyRunning.String())
	}
	if EventKind(99).String() != "unknown" {
		t.Errorf("String() = %q, want unknown", EventKind(99).String())
	}
}
