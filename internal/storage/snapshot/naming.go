package snapshot

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	filePrefix = "backup-"
	fileSuffix = ".backup.json"

	// timeLayout is the hyphen-separated local timestamp embedded in names.
	timeLayout = "2006-01-02-15-04-05"
)

// ErrInvalidFileName is returned when a name does not follow the snapshot pattern.
var ErrInvalidFileName = errors.New("snapshot: invalid file name")

var fileNamePattern = regexp.MustCompile(`^backup-\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}\.backup\.json$`)

// FileName returns the canonical snapshot file name for t, in local time
// truncated to the second.
func FileName(t time.Time) string {
	return filePrefix + t.In(time.Local).Format(timeLayout) + fileSuffix
}

// ParseFileName is the inverse of FileName.
func ParseFileName(name string) (time.Time, error) {
	if !fileNamePattern.MatchString(name) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	t, err := time.ParseInLocation(timeLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidFileName, name, err)
	}
	return t, nil
}

// IsSnapshotFile reports whether name carries the snapshot suffix.
func IsSnapshotFile(name string) bool {
	return strings.HasSuffix(name, fileSuffix)
}
