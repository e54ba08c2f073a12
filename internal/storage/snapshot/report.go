package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// NoBackupsMessage is the report message when no snapshot files exist.
const NoBackupsMessage = "no backups found"

// DefaultReportConcurrency is the number of snapshot files read in parallel.
const DefaultReportConcurrency = 4

// IDCount is the number of records carrying one id across all snapshots.
type IDCount struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Report summarizes the snapshot files present when it was generated.
type Report struct {
	// FileCount is the number of snapshot files that were read successfully.
	FileCount int `json:"file_count"`

	// Skipped is the number of snapshot files that could not be read or parsed.
	Skipped int `json:"skipped,omitempty"`

	// Message is set only when the directory holds no snapshot files.
	Message string `json:"message,omitempty"`

	LatestFile string     `json:"latest_file,omitempty"`
	LatestAt   *time.Time `json:"latest_at,omitempty"`

	// IDCounts is ordered by id: numeric ids first in numeric order, then
	// the rest lexicographically. An id written as a number and the same
	// number written as a string are one entry.
	IDCounts []IDCount `json:"id_counts,omitempty"`

	TotalRecords   int     `json:"total_records,omitempty"`
	AverageRecords float64 `json:"average_records,omitempty"`
}

// Reporter aggregates the snapshot files in a directory. It never writes
// to the directory and shares no state with the Manager.
type Reporter struct {
	dir         string
	logger      *slog.Logger
	concurrency int
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithReportLogger sets the reporter logger.
func WithReportLogger(logger *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		r.logger = logger
	}
}

// WithConcurrency sets how many files are read in parallel.
func WithConcurrency(n int) ReporterOption {
	return func(r *Reporter) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewReporter creates a reporter for dir.
func NewReporter(dir string, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		dir:         dir,
		logger:      slog.Default(),
		concurrency: DefaultReportConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "snapshot_report")
	return r
}

type fileResult struct {
	records []json.RawMessage
	err     error
}

// Generate builds a report from the snapshot files currently in the
// directory. Unreadable or malformed files are logged and skipped.
func (r *Reporter) Generate(ctx context.Context) (*Report, error) {
	names, err := r.snapshotNames()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return &Report{Message: NoBackupsMessage}, nil
	}

	results := make([]fileResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records, err := ReadFile[json.RawMessage](filepath.Join(r.dir, name))
			results[i] = fileResult{records: records, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("snapshot: report: %w", err)
	}

	report := &Report{}
	counts := make(map[recordKey]int)
	nonEmpty := 0

	for i, name := range names {
		res := results[i]
		if res.err != nil {
			r.logger.Warn("skipping unreadable snapshot", "filename", name, "error", res.err)
			report.Skipped++
			continue
		}

		created, err := ParseFileName(name)
		if err != nil {
			report.Skipped++
			continue
		}

		report.FileCount++
		if report.LatestAt == nil || created.After(*report.LatestAt) {
			t := created
			report.LatestAt = &t
			report.LatestFile = name
		}

		for _, raw := range res.records {
			if key, ok := keyOf(raw); ok {
				counts[key]++
			}
		}

		report.TotalRecords += len(res.records)
		if len(res.records) > 0 {
			nonEmpty++
		}
	}

	report.IDCounts = sortedCounts(counts)
	if nonEmpty > 0 {
		avg := float64(report.TotalRecords) / float64(nonEmpty)
		report.AverageRecords = math.Round(avg*100) / 100
	}

	r.logger.Debug("snapshot report generated",
		"files", report.FileCount,
		"skipped", report.Skipped,
		"total_records", report.TotalRecords)

	return report, nil
}

// snapshotNames lists canonical snapshot names in sorted order. A missing
// directory yields no names.
func (r *Reporter) snapshotNames() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: read dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsSnapshotFile(e.Name()) {
			continue
		}
		if _, err := ParseFileName(e.Name()); err != nil {
			r.logger.Debug("ignoring non-canonical snapshot name", "filename", e.Name())
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// recordKey is the canonical form of a record id. Numeric ids, whether
// written as JSON numbers or numeric strings, share one key.
type recordKey struct {
	text  string
	num   float64
	isNum bool
}

var numericID = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// keyOf extracts the id field of a record. Records that are not objects
// or have no id are not counted.
func keyOf(raw json.RawMessage) (recordKey, bool) {
	var rec struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return recordKey{}, false
	}
	id := bytes.TrimSpace(rec.ID)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return recordKey{}, false
	}

	text := string(id)
	if id[0] == '"' {
		if err := json.Unmarshal(id, &text); err != nil {
			return recordKey{}, false
		}
	}
	if numericID.MatchString(text) {
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			if f == 0 {
				f = 0 // -0
			}
			return recordKey{text: strconv.FormatFloat(f, 'f', -1, 64), num: f, isNum: true}, true
		}
	}
	return recordKey{text: text}, true
}

func sortedCounts(counts map[recordKey]int) []IDCount {
	keys := make([]recordKey, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.isNum != b.isNum {
			return a.isNum
		}
		if a.isNum && a.num != b.num {
			return a.num < b.num
		}
		return a.text < b.text
	})

	out := make([]IDCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, IDCount{ID: k.text, Count: counts[k]})
	}
	return out
}
