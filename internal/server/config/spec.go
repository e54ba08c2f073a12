package config

import "time"

// ServerConfig is the root configuration for roster-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Backup   BackupSection   `koanf:"backup"`
	Records  RecordsSection  `koanf:"records"`
	Journal  JournalSection  `koanf:"journal"`
	Security SecuritySection `koanf:"security"`
	Admin    AdminSection    `koanf:"admin"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
}

// BackupSection configures the snapshot scheduler.
type BackupSection struct {
	// Enabled starts the schedule at boot. The schedule can always be
	// started later through the admin API.
	Enabled bool `koanf:"enabled"`

	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`

	// RetentionCount keeps only the newest N snapshots after each
	// completed one. 0 keeps everything.
	RetentionCount int `koanf:"retention_count"`

	MaxOverlaps       int `koanf:"max_overlaps"`
	ReportConcurrency int `koanf:"report_concurrency"`
}

// RecordsSection configures the in-memory record collection.
type RecordsSection struct {
	// SeedFile is a JSON array of students loaded at boot. Usually the
	// newest snapshot file.
	SeedFile string `koanf:"seed_file"`
}

// JournalSection configures the scheduler event journal.
type JournalSection struct {
	Enabled    bool   `koanf:"enabled"`
	Dir        string `koanf:"dir"`
	MaxEntries int    `koanf:"max_entries"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// AdminToken protects /admin/v1. Empty disables authentication.
	AdminToken string `koanf:"admin_token"`
}

// AdminSection configures the admin API.
type AdminSection struct {
	// RateLimit is requests per second per client. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
