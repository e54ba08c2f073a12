package journal

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/roster-go/internal/storage/snapshot"
)

var keyPrefix = []byte("evt/")

// ErrClosed is returned by operations on a closed journal.
var ErrClosed = errors.New("journal: closed")

// Defaults for Config.
const (
	DefaultMaxEntries  = 10000
	DefaultGCInterval  = 10 * time.Minute
	DefaultRecentLimit = 50
	gcDiscardRatio     = 0.5
)

// Config configures the journal.
type Config struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir string

	InMemory bool

	// MaxEntries bounds the number of retained entries. Older entries are
	// dropped during compaction. Default: 10000.
	MaxEntries int

	// GCInterval is the compaction period. Default: 10m.
	GCInterval time.Duration
}

// Entry is one persisted scheduler event.
type Entry struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Time       time.Time `json:"time"`
	Filename   string    `json:"filename,omitempty"`
	Error      string    `json:"error,omitempty"`
	Overlaps   int       `json:"overlaps,omitempty"`
	DurationMS int64     `json:"duration_ms,omitempty"`
}

// Journal is an append-only event log backed by Badger.
type Journal struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger

	entropyMu sync.Mutex
	entropy   io.Reader

	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Open opens or creates the journal.
func Open(cfg Config, logger *slog.Logger) (*Journal, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("journal: dir is required")
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = DefaultGCInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "journal")

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}

	j := &Journal{
		db:      db,
		cfg:     cfg,
		logger:  logger,
		entropy: ulid.Monotonic(rand.Reader, 0),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go j.gcLoop()

	logger.Info("journal opened", "dir", cfg.Dir, "in_memory", cfg.InMemory, "max_entries", cfg.MaxEntries)
	return j, nil
}

func (j *Journal) newID(t time.Time) ulid.ULID {
	j.entropyMu.Lock()
	defer j.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), j.entropy)
}

// Append stores an entry. ID is assigned when empty.
func (j *Journal) Append(_ context.Context, e Entry) (Entry, error) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.ID == "" {
		e.ID = j.newID(e.Time).String()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("journal: encode entry: %w", err)
	}

	err = j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(append(keyPrefix[:len(keyPrefix):len(keyPrefix)], e.ID...), value)
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return Entry{}, ErrClosed
		}
		return Entry{}, fmt.Errorf("journal: append: %w", err)
	}
	return e, nil
}

// Record appends a scheduler event. It is meant to be passed to
// Manager.SubscribeAll; failures are logged.
func (j *Journal) Record(ev snapshot.Event) {
	e := Entry{
		Kind:       ev.Kind.String(),
		Time:       ev.Time,
		Filename:   ev.Filename,
		Overlaps:   ev.Overlaps,
		DurationMS: ev.Duration.Milliseconds(),
	}
	if ev.Err != nil {
		e.Error = ev.Err.Error()
	}
	if _, err := j.Append(context.Background(), e); err != nil {
		j.logger.Warn("failed to journal snapshot event", "kind", e.Kind, "error", err)
	}
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var out []Entry
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(keyPrefix[:len(keyPrefix):len(keyPrefix)], 0xFF)
		for it.Seek(seek); it.Valid() && len(out) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				j.logger.Warn("skipping undecodable journal entry", "key", string(it.Item().Key()), "error", err)
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return out, nil
}

// Compact drops the oldest entries beyond MaxEntries and returns how many
// were removed.
func (j *Journal) Compact(ctx context.Context) (int, error) {
	var stale [][]byte
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = keyPrefix
		opts.PrefetchValues = false
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seen := 0
		seek := append(keyPrefix[:len(keyPrefix):len(keyPrefix)], 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			seen++
			if seen > j.cfg.MaxEntries {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		return ctx.Err()
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := j.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range stale {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("journal: compact: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("journal: compact: %w", err)
	}

	j.logger.Info("journal compacted", "deleted_count", len(stale))
	return len(stale), nil
}

// RegisterMetrics exposes the journal's on-disk size.
func (j *Journal) RegisterMetrics(reg prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "roster",
		Subsystem: "journal",
		Name:      "lsm_size_bytes",
		Help:      "Journal LSM tree size in bytes",
	}, func() float64 {
		l, _ := j.db.Size()
		return float64(l)
	})
	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "roster",
		Subsystem: "journal",
		Name:      "value_log_size_bytes",
		Help:      "Journal value log size in bytes",
	}, func() float64 {
		_, v := j.db.Size()
		return float64(v)
	})

	for _, c := range []prometheus.Collector{lsm, vlog} {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("journal: register metrics: %w", err)
		}
	}
	return nil
}

// Close stops compaction and closes the database.
func (j *Journal) Close() error {
	var err error
	j.closeOnce.Do(func() {
		close(j.stopCh)
		<-j.doneCh
		if cerr := j.db.Close(); cerr != nil {
			err = fmt.Errorf("journal: close db: %w", cerr)
		}
		j.logger.Info("journal closed")
	})
	return err
}

func (j *Journal) gcLoop() {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := j.Compact(ctx); err != nil {
				j.logger.Error("journal compaction failed", "error", err)
			}
			cancel()
			if !j.cfg.InMemory {
				for j.db.RunValueLogGC(gcDiscardRatio) == nil {
				}
			}
		case <-j.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
