package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/roster-go/internal/cli/output"
	"github.com/yndnr/roster-go/internal/infra/buildinfo"
)

// HealthCommand checks that the server answers.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check server health",
		Action: health,
	}
}

func health(c *cli.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	if err := apiGet(c, "/health", &result); err != nil {
		printf(c, "%s\n", output.Fail("server unreachable: %v", err))
		return err
	}

	if settingsFrom(c).Output != output.FormatTable {
		return render(c, result)
	}
	printf(c, "%s\n", output.OK("server is %s (%s)", result.Status, settingsFrom(c).Server))
	return nil
}

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			if settingsFrom(c).Output != output.FormatTable {
				return render(c, buildinfo.Get())
			}
			printf(c, "%s\n", buildinfo.String("roster-cli"))
			return nil
		},
	}
}
