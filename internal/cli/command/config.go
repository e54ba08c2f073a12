package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/roster-go/internal/cli/config"
	"github.com/yndnr/roster-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Local CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration (token masked)",
				Action: configShow,
			},
			{
				Name:        "set",
				Usage:       "Set a key in the config file",
				ArgsUsage:   "KEY VALUE",
				Description: "Keys: " + strings.Join(config.Keys, ", "),
				Action:      configSet,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	s := settingsFrom(c)
	eff := &config.CLIConfig{
		Server:    s.Server,
		Token:     s.Token,
		CAFile:    s.CAFile,
		Output:    string(s.Output),
		BackupDir: s.BackupDir,
	}
	return render(c, eff.Redacted())
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config set KEY VALUE (keys: %s)", strings.Join(config.Keys, ", "))
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	s := settingsFrom(c)
	// Reload so values given as flags are not persisted.
	file, err := config.Load(s.ConfigPath)
	if err != nil {
		return err
	}
	if err := file.Set(key, value); err != nil {
		return err
	}
	if err := config.Save(file, s.ConfigPath); err != nil {
		return err
	}
	printf(c, "%s\n", output.OK("%s updated in %s", key, s.ConfigPath))
	return nil
}

func configPath(c *cli.Context) error {
	printf(c, "%s\n", settingsFrom(c).ConfigPath)
	return nil
}
