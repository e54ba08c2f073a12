package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr string `koanf:"addr"`
		} `koanf:"http"`
	} `koanf:"server"`
	Backup struct {
		Dir            string `koanf:"dir"`
		Interval       string `koanf:"interval"`
		RetentionCount int    `koanf:"retention_count"`
	} `koanf:"backup"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoader_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "127.0.0.1:9000"
backup:
  dir: /var/lib/roster/backups
  interval: 30s
`)
	t.Setenv("ROSTER_BACKUP__INTERVAL", "1m")
	t.Setenv("ROSTER_BACKUP__RETENTION_COUNT", "5")

	l := NewLoader(
		WithConfigFile(path),
		WithDefaults(map[string]any{
			"server.http.addr":       "0.0.0.0:8080",
			"backup.dir":             "backups",
			"backup.interval":        "10s",
			"backup.retention_count": 0,
		}),
	)

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("addr = %q, file should override default", cfg.Server.HTTP.Addr)
	}
	if cfg.Backup.Interval != "1m" {
		t.Errorf("interval = %q, env should override file", cfg.Backup.Interval)
	}
	if cfg.Backup.RetentionCount != 5 {
		t.Errorf("retention_count = %d, want 5", cfg.Backup.RetentionCount)
	}
	if cfg.Backup.Dir != "/var/lib/roster/backups" {
		t.Errorf("dir = %q", cfg.Backup.Dir)
	}
}

func TestLoader_DefaultsOnly(t *testing.T) {
	l := NewLoader(WithDefaults(map[string]any{"backup.dir": "backups"}))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Backup.Dir != "backups" {
		t.Errorf("dir = %q, want backups", cfg.Backup.Dir)
	}
}

func TestLoader_LoadFileNotFound(t *testing.T) {
	l := NewLoader(WithConfigFile("/nonexistent/roster.yaml"))
	var cfg testConfig
	if err := l.Load(&cfg); err == nil {
		t.Fatal("Load() with missing file should fail")
	}
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	l := NewLoader()
	if err := l.LoadFile(path); err == nil {
		t.Fatal("LoadFile() with invalid YAML should fail")
	}
}

func TestLoader_EnvPrefix(t *testing.T) {
	t.Setenv("CUSTOM_SERVER__HTTP__ADDR", ":7000")
	t.Setenv("ROSTER_SERVER__HTTP__ADDR", ":8000")

	l := NewLoader(WithEnvPrefix("CUSTOM_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatal(err)
	}
	if got := l.GetString("server.http.addr"); got != ":7000" {
		t.Errorf("server.http.addr = %q, want :7000", got)
	}
}

func TestEnvKey(t *testing.T) {
	l := NewLoader()
	tests := map[string]string{
		"ROSTER_BACKUP__RETENTION_COUNT": "backup.retention_count",
		"ROSTER_SECURITY__ADMIN_TOKEN":   "security.admin_token",
		"ROSTER_SERVER__HTTP__ADDR":      "server.http.addr",
	}
	for in, want := range tests {
		if got := l.envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoader_LoadMapNested(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"backup.retention_count": 3}); err != nil {
		t.Fatal(err)
	}
	if got := l.GetInt("backup.retention_count"); got != 3 {
		t.Errorf("retention_count = %d, want 3", got)
	}
	if len(l.Keys()) != 1 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}
