package command

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/roster-go/internal/cli/config"
	"github.com/yndnr/roster-go/internal/cli/connection"
	"github.com/yndnr/roster-go/internal/cli/output"
	"github.com/yndnr/roster-go/internal/infra/buildinfo"
	"github.com/yndnr/roster-go/internal/infra/tlsroots"
)

const settingsKey = "settings"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "roster-cli",
		Usage:                "roster snapshot administration tool",
		Version:              buildinfo.Get().Version,
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			BackupCommand(),
			ConfigCommand(),
			HealthCommand(),
			VersionCommand(),
		},
		Before: loadSettings,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "CLI config file",
			Value: config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "roster admin API address (e.g. http://127.0.0.1:5080)",
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "admin bearer token",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "extra CA bundle for https servers",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
}

// Settings is the resolved CLI configuration: flags over the config file
// over ROSTER_CLI_* variables over defaults.
type Settings struct {
	ConfigPath string
	File       *config.CLIConfig
	Server     string
	Token      string
	CAFile     string
	Output     output.Format
	Wide       bool
	BackupDir  string
}

func loadSettings(c *cli.Context) error {
	path := c.String("config")
	file, err := config.Load(path)
	if err != nil {
		return err
	}

	s := &Settings{
		ConfigPath: path,
		File:       file,
		Server:     pick(c, "server", file.Server),
		Token:      pick(c, "token", file.Token),
		CAFile:     pick(c, "ca-file", file.CAFile),
		Wide:       c.Bool("wide"),
		BackupDir:  file.BackupDir,
	}
	if s.Output, err = output.ParseFormat(pick(c, "output", file.Output)); err != nil {
		return err
	}
	if c.Bool("no-color") {
		color.NoColor = true
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[settingsKey] = s
	return nil
}

func pick(c *cli.Context, flag, fallback string) string {
	if c.IsSet(flag) {
		return c.String(flag)
	}
	return fallback
}

// settingsFrom returns the settings resolved by the Before hook.
func settingsFrom(c *cli.Context) *Settings {
	if s, ok := c.App.Metadata[settingsKey].(*Settings); ok {
		return s
	}
	return &Settings{File: config.Default(), Server: config.Default().Server, Output: output.FormatTable}
}

// newClient builds an admin API client from the settings.
func newClient(c *cli.Context) (*connection.HTTPClient, error) {
	s := settingsFrom(c)
	opts := []connection.Option{connection.WithToken(s.Token)}
	if s.CAFile != "" || strings.HasPrefix(s.Server, "https://") {
		tlsCfg, err := tlsroots.ClientConfigFor(s.CAFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsCfg))
	}
	return connection.NewHTTPClient(s.Server, opts...), nil
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	s := settingsFrom(c)
	return output.NewFormatter(s.Output, s.Wide).Format(c.App.Writer, data)
}

func printf(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.Writer, format, args...)
}

func stderr(c *cli.Context) io.Writer {
	return c.App.ErrWriter
}
