package config

// CLIConfig is the configuration for roster-cli.
type CLIConfig struct {
	// Server is the admin API base URL.
	Server string `koanf:"server" yaml:"server"`

	// Token is the admin bearer token.
	Token string `koanf:"token" yaml:"token,omitempty"`

	// CAFile is an extra PEM bundle trusted for https servers.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" yaml:"output"`

	// BackupDir is the directory used by local backup commands.
	BackupDir string `koanf:"backup_dir" yaml:"backup_dir,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server: "http://127.0.0.1:5080",
		Output: "table",
	}
}

// Keys lists the settable configuration keys.
var Keys = []string{"server", "token", "ca_file", "output", "backup_dir"}
