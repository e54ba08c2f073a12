package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrSnapshotExists is returned when a snapshot with the same name was
// already published.
var ErrSnapshotExists = errors.New("snapshot: file already exists")

// Encode writes records as a JSON array. A nil slice is written as [].
func Encode[R any](w io.Writer, records []R) error {
	if records == nil {
		records = []R{}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// Decode reads a JSON array of records. Anything after the array other
// than whitespace is an error.
func Decode[R any](r io.Reader) ([]R, error) {
	dec := json.NewDecoder(r)
	var records []R
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	if records == nil {
		// A literal null is not a sequence.
		return nil, fmt.Errorf("snapshot: decode: body is not an array")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("snapshot: decode: trailing data after array")
	}
	return records, nil
}

// ReadFile decodes the snapshot at path.
func ReadFile[R any](path string) ([]R, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode[R](f)
}

// WriteFile publishes records under dir/name.
//
// The body is written to a temp file in the same directory, synced, and
// then hard-linked to the final name, so readers never observe a partial
// file and an existing snapshot is never replaced.
func WriteFile[R any](dir, name string, records []R) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Encode(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Link(tmpPath, finalPath); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotExists, name)
		}
		return fmt.Errorf("snapshot: publish: %w", err)
	}
	return nil
}
