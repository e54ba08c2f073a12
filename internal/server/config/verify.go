package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/roster-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyBackup(&cfg.Backup); err != nil {
		return err
	}
	if err := verifyJournal(&cfg.Journal); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Admin); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}

	cert, key := cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile
	if (cert == "") != (key == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cert, key} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http tls file: %w", err)
		}
	}
	return nil
}

func verifyBackup(cfg *BackupSection) error {
	if strings.TrimSpace(cfg.Dir) == "" {
		return errors.New("backup.dir is required")
	}
	if cfg.Interval <= 0 {
		return errors.New("backup.interval must be positive")
	}
	if cfg.MaxOverlaps < 1 {
		return errors.New("backup.max_overlaps must be at least 1")
	}
	if cfg.RetentionCount < 0 {
		return errors.New("backup.retention_count must not be negative")
	}
	if cfg.ReportConcurrency < 1 {
		return errors.New("backup.report_concurrency must be at least 1")
	}
	return nil
}

func verifyJournal(cfg *JournalSection) error {
	if !cfg.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return errors.New("journal.dir is required when the journal is enabled")
	}
	if cfg.MaxEntries < 1 {
		return errors.New("journal.max_entries must be at least 1")
	}
	return nil
}

func verifyAdmin(cfg *AdminSection) error {
	if cfg.RateLimit < 0 {
		return errors.New("admin.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("admin.rate_burst must be at least 1 when rate limiting is enabled")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "json", "text", "console":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
}
