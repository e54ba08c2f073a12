package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/roster-go/internal/infra/confloader"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if !cfg.Backup.Enabled {
		t.Error("backup should be enabled by default")
	}
	if cfg.Backup.Interval != DefaultBackupInterval {
		t.Errorf("Backup.Interval = %v, want %v", cfg.Backup.Interval, DefaultBackupInterval)
	}
	if cfg.Backup.MaxOverlaps != DefaultMaxOverlaps {
		t.Errorf("Backup.MaxOverlaps = %d, want %d", cfg.Backup.MaxOverlaps, DefaultMaxOverlaps)
	}
	if cfg.Backup.RetentionCount != 0 {
		t.Errorf("Backup.RetentionCount = %d, want 0", cfg.Backup.RetentionCount)
	}
	if cfg.Security.AdminToken != "" {
		t.Error("admin token should be empty by default")
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) = %v", err)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "no-port" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "/tmp/cert.pem" }, "set together"},
		{"missing tls files", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}, "tls file"},
		{"empty backup dir", func(c *ServerConfig) { c.Backup.Dir = " " }, "backup.dir"},
		{"zero interval", func(c *ServerConfig) { c.Backup.Interval = 0 }, "backup.interval"},
		{"zero overlaps", func(c *ServerConfig) { c.Backup.MaxOverlaps = 0 }, "max_overlaps"},
		{"negative retention", func(c *ServerConfig) { c.Backup.RetentionCount = -1 }, "retention_count"},
		{"zero report concurrency", func(c *ServerConfig) { c.Backup.ReportConcurrency = 0 }, "report_concurrency"},
		{"journal without dir", func(c *ServerConfig) { c.Journal.Dir = "" }, "journal.dir"},
		{"journal max entries", func(c *ServerConfig) { c.Journal.MaxEntries = 0 }, "journal.max_entries"},
		{"negative rate", func(c *ServerConfig) { c.Admin.RateLimit = -1 }, "rate_limit"},
		{"rate without burst", func(c *ServerConfig) { c.Admin.RateBurst = 0 }, "rate_burst"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "chatty" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_DisabledJournalSkipsChecks(t *testing.T) {
	cfg := Default()
	cfg.Journal.Enabled = false
	cfg.Journal.Dir = ""
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Security.AdminToken = "super-secret-admin-token"

	sanitized := Sanitize(cfg)

	if cfg.Security.AdminToken != "super-secret-admin-token" {
		t.Error("Sanitize modified the original")
	}
	if sanitized.Security.AdminToken == cfg.Security.AdminToken {
		t.Error("admin token not masked")
	}
	if !strings.HasPrefix(sanitized.Security.AdminToken, "su") || !strings.HasSuffix(sanitized.Security.AdminToken, "en") {
		t.Errorf("masked token = %q", sanitized.Security.AdminToken)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := map[string]string{
		"abc":    "****",
		"abcd":   "****",
		"abcdef": "ab**ef",
	}
	for in, want := range tests {
		if got := maskSecret(in); got != want {
			t.Errorf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	content := `
backup:
  dir: /srv/roster/backups
  interval: 30s
  retention_count: 12
security:
  admin_token: from-file
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ROSTER_BACKUP__MAX_OVERLAPS", "5")
	t.Setenv("ROSTER_ADMIN__RATE_LIMIT", "2.5")

	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backup.Dir != "/srv/roster/backups" {
		t.Errorf("Backup.Dir = %q", cfg.Backup.Dir)
	}
	if cfg.Backup.Interval != 30*time.Second {
		t.Errorf("Backup.Interval = %v, want 30s", cfg.Backup.Interval)
	}
	if cfg.Backup.RetentionCount != 12 {
		t.Errorf("Backup.RetentionCount = %d, want 12", cfg.Backup.RetentionCount)
	}
	if cfg.Backup.MaxOverlaps != 5 {
		t.Errorf("Backup.MaxOverlaps = %d, want 5", cfg.Backup.MaxOverlaps)
	}
	if cfg.Admin.RateLimit != 2.5 {
		t.Errorf("Admin.RateLimit = %v, want 2.5", cfg.Admin.RateLimit)
	}
	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, default should survive", cfg.Server.HTTP.Addr)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}
