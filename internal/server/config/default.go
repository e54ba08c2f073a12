package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr = "127.0.0.1:5080"

	DefaultBackupDir         = "/var/lib/roster/backups"
	DefaultBackupInterval    = 10 * time.Minute
	DefaultMaxOverlaps       = 3
	DefaultReportConcurrency = 4

	DefaultJournalDir        = "/var/lib/roster/journal"
	DefaultJournalMaxEntries = 10000

	DefaultRateLimit = 10.0
	DefaultRateBurst = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Backup: BackupSection{
			Enabled:           true,
			Dir:               DefaultBackupDir,
			Interval:          DefaultBackupInterval,
			MaxOverlaps:       DefaultMaxOverlaps,
			ReportConcurrency: DefaultReportConcurrency,
		},
		Journal: JournalSection{
			Enabled:    true,
			Dir:        DefaultJournalDir,
			MaxEntries: DefaultJournalMaxEntries,
		},
		Admin: AdminSection{
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
