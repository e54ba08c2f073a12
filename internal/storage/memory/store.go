package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
	"github.com/yndnr/roster-go/pkg/cmap"
)

// Store provides in-memory student storage.
type Store struct {
	students *cmap.Map[int64, *domain.Student]
	logger   *slog.Logger

	// Serializes Create so the conflict check and insert are atomic with
	// respect to LoadFile.
	mu sync.Mutex
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		students: cmap.New[int64, *domain.Student](cmap.Int64Hash),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a student by id.
func (s *Store) Get(_ context.Context, id int64) (*domain.Student, error) {
	st, ok := s.students.Get(id)
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	return st.Clone(), nil
}

// Create stores a new student. It fails if the id is taken.
func (s *Store) Create(_ context.Context, st *domain.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.students.SetIfAbsent(st.ID, st.Clone()) {
		return domain.ErrStudentConflict
	}
	return nil
}

// Put creates or replaces a student.
func (s *Store) Put(_ context.Context, st *domain.Student) error {
	if err := st.Validate(); err != nil {
		return err
	}
	s.students.Set(st.ID, st.Clone())
	return nil
}

// Delete removes a student by id.
func (s *Store) Delete(_ context.Context, id int64) error {
	if _, ok := s.students.Pop(id); !ok {
		return domain.ErrStudentNotFound
	}
	return nil
}

// Count returns the number of students.
func (s *Store) Count() int {
	return s.students.Count()
}

// List returns copies of all students ordered by id. It satisfies
// snapshot.Source[domain.Student].
func (s *Store) List(ctx context.Context) ([]domain.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Student, 0, s.students.Count())
	s.students.Range(func(_ int64, st *domain.Student) bool {
		out = append(out, *st)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// LoadFile seeds the store from a snapshot file. Records that fail
// validation are skipped; a later record with the same id replaces an
// earlier one. It returns the number of records loaded.
func (s *Store) LoadFile(path string) (int, error) {
	records, err := snapshot.ReadFile[domain.Student](path)
	if err != nil {
		return 0, fmt.Errorf("memory: load %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for i := range records {
		st := &records[i]
		if err := st.Validate(); err != nil {
			s.logger.Warn("skipping invalid seed record", "path", path, "index", i, "error", err)
			continue
		}
		s.students.Set(st.ID, st.Clone())
		loaded++
	}

	s.logger.Info("student collection seeded", "path", path, "loaded", loaded, "skipped", len(records)-loaded)
	return loaded, nil
}

var _ snapshot.Source[domain.Student] = (*Store)(nil).List
