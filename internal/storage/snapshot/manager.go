package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultMaxOverlaps is the number of consecutive overlapped ticks after
// which an in-flight snapshot is considered stuck.
const DefaultMaxOverlaps = 3

var (
	// ErrInvalidInterval is returned by Start for a non-positive interval.
	ErrInvalidInterval = errors.New("snapshot: interval must be positive")

	// ErrSnapshotTimeout is delivered on Fatal when one snapshot stays in
	// flight for MaxOverlaps consecutive ticks.
	ErrSnapshotTimeout = errors.New("snapshot: operation overran the schedule")

	// ErrSnapshotInFlight is returned by Trigger while a snapshot is running.
	ErrSnapshotInFlight = errors.New("snapshot: operation already in flight")

	// ErrCollection wraps errors returned by the Source.
	ErrCollection = errors.New("snapshot: read collection")
)

// Source returns the current record collection.
//
// It must not block indefinitely; the Manager imposes no timeout on it.
type Source[R any] func(ctx context.Context) ([]R, error)

// Config configures the snapshot manager.
type Config struct {
	// Dir is the backup directory. It is created on demand.
	Dir string

	// MaxOverlaps is the overlap ceiling. Default: 3.
	MaxOverlaps int

	Logger *slog.Logger

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Running  bool          `json:"running"`
	InFlight bool          `json:"in_flight"`
	Overlaps int           `json:"overlaps"`
	Interval time.Duration `json:"interval"`
	Dir      string        `json:"dir"`
}

// Manager writes one snapshot of the collection per tick, with at most one
// snapshot in flight at any time.
type Manager[R any] struct {
	cfg    Config
	source Source[R]
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	gen       uint64
	interval  time.Duration
	ticker    *time.Ticker
	stopCh    chan struct{}
	inFlight  bool
	overlaps  int
	seq       uint64
	abandoned uint64

	subsMu sync.RWMutex
	subs   map[EventKind][]func(Event)
	all    []func(Event)

	fatal chan error
}

// NewManager creates a stopped manager.
func NewManager[R any](cfg Config, source Source[R]) (*Manager[R], error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("snapshot: dir is required")
	}
	if source == nil {
		return nil, fmt.Errorf("snapshot: source is required")
	}
	if cfg.MaxOverlaps <= 0 {
		cfg.MaxOverlaps = DefaultMaxOverlaps
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Manager[R]{
		cfg:    cfg,
		source: source,
		logger: cfg.Logger.With("component", "snapshot"),
		subs:   make(map[EventKind][]func(Event)),
		fatal:  make(chan error, 1),
	}, nil
}

// Subscribe registers fn for one notification channel.
func (m *Manager[R]) Subscribe(kind EventKind, fn func(Event)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs[kind] = append(m.subs[kind], fn)
}

// SubscribeAll registers fn for every notification channel.
func (m *Manager[R]) SubscribeAll(fn func(Event)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.all = append(m.all, fn)
}

// Fatal delivers the overlap timeout error. The scheduler has already
// disarmed itself when a value arrives; the receiver decides whether the
// process should exit.
func (m *Manager[R]) Fatal() <-chan error {
	return m.fatal
}

// Start arms the schedule and takes the first snapshot immediately.
// Calling Start on a running manager only emits already-running.
func (m *Manager[R]) Start(interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("snapshot scheduler already running")
		m.emit(Event{Kind: EventAlreadyRunning})
		return nil
	}
	m.running = true
	m.gen++
	gen := m.gen
	m.interval = interval
	m.ticker = time.NewTicker(interval)
	m.stopCh = make(chan struct{})
	ticks, stop := m.ticker.C, m.stopCh
	m.mu.Unlock()

	m.logger.Info("snapshot scheduler started", "interval", interval, "dir", m.cfg.Dir)
	m.emit(Event{Kind: EventStarted, Interval: interval})

	go m.loop(gen, ticks, stop)
	m.fire(gen)
	return nil
}

// Stop disarms the schedule. An in-flight snapshot is not cancelled and
// still reports its outcome.
func (m *Manager[R]) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.logger.Debug("snapshot scheduler not running")
		m.emit(Event{Kind: EventNotRunning})
		return
	}
	m.disarmLocked()
	m.mu.Unlock()

	m.logger.Info("snapshot scheduler stopped")
	m.emit(Event{Kind: EventStopped})
}

// IsRunning reports whether the schedule is armed.
func (m *Manager[R]) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Status returns the current scheduler state.
func (m *Manager[R]) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		Running:  m.running,
		InFlight: m.inFlight,
		Overlaps: m.overlaps,
		Dir:      m.cfg.Dir,
	}
	if m.running {
		st.Interval = m.interval
	}
	return st
}

// Trigger takes one snapshot now, outside the schedule.
func (m *Manager[R]) Trigger() error {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return ErrSnapshotInFlight
	}
	seq := m.beginLocked()
	m.mu.Unlock()

	m.logger.Info("manual snapshot triggered")
	go m.dispatch(seq)
	return nil
}

func (m *Manager[R]) loop(gen uint64, ticks <-chan time.Time, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticks:
			m.fire(gen)
		}
	}
}

// fire handles one tick of schedule generation gen.
func (m *Manager[R]) fire(gen uint64) {
	m.mu.Lock()
	if !m.running || m.gen != gen {
		m.mu.Unlock()
		return
	}

	if m.inFlight {
		m.overlaps++
		n := m.overlaps
		if n < m.cfg.MaxOverlaps {
			m.mu.Unlock()
			m.logger.Warn("snapshot still in flight, tick skipped", "overlaps", n)
			m.emit(Event{Kind: EventOverlap, Overlaps: n})
			return
		}

		interval := m.interval
		m.abandoned = m.seq
		m.disarmLocked()
		m.mu.Unlock()

		err := fmt.Errorf("%w: in flight for %d consecutive ticks of %s", ErrSnapshotTimeout, n, interval)
		m.logger.Error("snapshot scheduler timed out", "overlaps", n, "interval", interval)
		m.emit(Event{Kind: EventTimeout, Err: err, Overlaps: n})
		m.escalate(err)
		return
	}

	seq := m.beginLocked()
	m.mu.Unlock()

	go m.dispatch(seq)
}

func (m *Manager[R]) beginLocked() uint64 {
	m.inFlight = true
	m.overlaps = 0
	m.seq++
	return m.seq
}

func (m *Manager[R]) disarmLocked() {
	m.ticker.Stop()
	close(m.stopCh)
	m.ticker = nil
	m.stopCh = nil
	m.running = false
}

// finish clears the in-flight state and reports whether the operation was
// abandoned by a forced shutdown.
func (m *Manager[R]) finish(seq uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight = false
	m.overlaps = 0
	return seq == m.abandoned
}

func (m *Manager[R]) escalate(err error) {
	select {
	case m.fatal <- err:
	default:
		m.logger.Error("fatal snapshot error dropped, previous one not consumed", "error", err)
	}
}

// dispatch runs one snapshot and reports its outcome.
func (m *Manager[R]) dispatch(seq uint64) {
	start := time.Now()
	name, err := m.write(context.Background())
	elapsed := time.Since(start)

	if abandoned := m.finish(seq); abandoned {
		m.logger.Warn("abandoned snapshot finished after forced shutdown",
			"filename", name,
			"elapsed", elapsed,
			"error", err)
		return
	}

	if err != nil {
		m.logger.Error("snapshot failed", "filename", name, "error", err, "elapsed", elapsed)
		m.emit(Event{Kind: EventFailed, Filename: name, Err: err, Duration: elapsed})
		m.emit(Event{Kind: EventError, Err: err})
		return
	}

	m.logger.Info("snapshot completed", "filename", name, "elapsed", elapsed)
	m.emit(Event{Kind: EventCompleted, Filename: name, Duration: elapsed})
}

// write performs the snapshot steps. The returned name is empty if the
// failure happened before it was computed.
func (m *Manager[R]) write(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.cfg.Dir, 0750); err != nil {
		return "", fmt.Errorf("snapshot: create dir: %w", err)
	}

	records, err := m.source(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCollection, err)
	}

	name := FileName(m.cfg.Now())
	if err := WriteFile(m.cfg.Dir, name, records); err != nil {
		return name, err
	}
	return name, nil
}

func (m *Manager[R]) emit(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = m.cfg.Now()
	}

	m.subsMu.RLock()
	fns := make([]func(Event), 0, len(m.subs[ev.Kind])+len(m.all))
	fns = append(fns, m.subs[ev.Kind]...)
	fns = append(fns, m.all...)
	m.subsMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
