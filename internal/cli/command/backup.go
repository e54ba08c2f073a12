package command

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/roster-go/internal/cli/connection"
	"github.com/yndnr/roster-go/internal/cli/output"
	"github.com/yndnr/roster-go/internal/server/httpserver/handler"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
)

const requestTimeout = 30 * time.Second

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	dirFlag := &cli.StringFlag{
		Name:  "dir",
		Usage: "work on a local backup directory instead of the server",
	}

	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"bk"},
		Usage:   "Snapshot scheduler and backup files",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show scheduler status",
				Action: backupStatus,
			},
			{
				Name:  "start",
				Usage: "Start periodic snapshots",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "snapshot interval (default: server configuration)",
					},
				},
				Action: backupStart,
			},
			{
				Name:   "stop",
				Usage:  "Stop periodic snapshots",
				Action: backupStop,
			},
			{
				Name:  "trigger",
				Usage: "Take one snapshot now",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "wait until the snapshot file appears",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "how long --wait waits",
						Value: time.Minute,
					},
				},
				Action: backupTrigger,
			},
			{
				Name:   "report",
				Usage:  "Summarize the snapshot files",
				Flags:  []cli.Flag{dirFlag},
				Action: backupReport,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List snapshot files, oldest first",
				Flags:   []cli.Flag{dirFlag},
				Action:  backupList,
			},
			{
				Name:  "prune",
				Usage: "Delete all but the newest snapshot files in a local directory",
				Flags: []cli.Flag{
					dirFlag,
					&cli.IntFlag{
						Name:     "keep",
						Usage:    "number of newest snapshots to keep",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "show what would be deleted",
					},
				},
				Action: backupPrune,
			},
			{
				Name:  "history",
				Usage: "Show recent scheduler events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "number of events",
						Value: 20,
					},
				},
				Action: backupHistory,
			},
		},
	}
}

type statusView struct {
	Running  bool          `json:"running"`
	InFlight bool          `json:"in_flight"`
	Overlaps int           `json:"overlaps"`
	Interval time.Duration `json:"interval"`
	Dir      string        `json:"dir"`
}

func newStatusView(r handler.StatusResponse) statusView {
	return statusView{
		Running:  r.Running,
		InFlight: r.InFlight,
		Overlaps: r.Overlaps,
		Interval: time.Duration(r.IntervalSeconds) * time.Second,
		Dir:      r.Dir,
	}
}

func backupStatus(c *cli.Context) error {
	st, err := fetchStatus(c)
	if err != nil {
		return err
	}
	if settingsFrom(c).Output != output.FormatTable {
		return render(c, st)
	}
	return render(c, newStatusView(*st))
}

func fetchStatus(c *cli.Context) (*handler.StatusResponse, error) {
	var st handler.StatusResponse
	if err := apiGet(c, "/admin/v1/backups/status", &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func backupStart(c *cli.Context) error {
	var body any
	if c.IsSet("interval") {
		body = handler.StartRequest{Interval: c.Duration("interval").String()}
	}

	var st handler.StatusResponse
	if err := apiPost(c, "/admin/v1/backups/start", body, &st); err != nil {
		return err
	}
	printf(c, "%s\n", output.OK("snapshot scheduler started (interval %s)",
		time.Duration(st.IntervalSeconds)*time.Second))
	return nil
}

func backupStop(c *cli.Context) error {
	if err := apiPost(c, "/admin/v1/backups/stop", nil, nil); err != nil {
		return err
	}
	printf(c, "%s\n", output.OK("snapshot scheduler stopped"))
	return nil
}

func backupTrigger(c *cli.Context) error {
	var before []handler.BackupInfo
	wait := c.Bool("wait")
	if wait {
		list, err := remoteList(c)
		if err != nil {
			return err
		}
		before = list
	}

	if err := apiPost(c, "/admin/v1/backups/trigger", nil, nil); err != nil {
		return err
	}
	if !wait {
		printf(c, "%s\n", output.OK("snapshot triggered"))
		return nil
	}

	spin := output.NewSpinner(stderr(c), "waiting for snapshot")
	spin.Start()
	name, err := waitForNewSnapshot(c, latestName(before), c.Duration("timeout"))
	if err != nil {
		spin.Fail(err.Error())
		return err
	}
	spin.Success("snapshot written: " + name)
	return nil
}

func latestName(list []handler.BackupInfo) string {
	if len(list) == 0 {
		return ""
	}
	return list[len(list)-1].Name
}

// waitForNewSnapshot polls the list until a file sorts after prev.
func waitForNewSnapshot(c *cli.Context, prev string, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		st, err := fetchStatus(c)
		if err != nil {
			return "", err
		}
		if !st.InFlight {
			list, err := remoteList(c)
			if err != nil {
				return "", err
			}
			if latest := latestName(list); latest > prev {
				return latest, nil
			}
			return "", errors.New("snapshot finished without a new file, see backup history")
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("snapshot still in flight after %s", timeout)
		}
		<-ticker.C
	}
}

func backupReport(c *cli.Context) error {
	var rep *snapshot.Report
	if dir := c.String("dir"); dir != "" {
		r, err := snapshot.NewReporter(dir).Generate(c.Context)
		if err != nil {
			return err
		}
		rep = r
	} else {
		rep = &snapshot.Report{}
		if err := apiGet(c, "/admin/v1/backups/report", rep); err != nil {
			return err
		}
	}

	if settingsFrom(c).Output != output.FormatTable {
		return render(c, rep)
	}
	return printReport(c, rep)
}

func printReport(c *cli.Context, rep *snapshot.Report) error {
	if rep.Message != "" {
		printf(c, "%s\n", rep.Message)
		return nil
	}

	printf(c, "Files:           %d\n", rep.FileCount)
	if rep.Skipped > 0 {
		printf(c, "Skipped:         %d\n", rep.Skipped)
	}
	if rep.LatestAt != nil {
		printf(c, "Latest:          %s (%s)\n", rep.LatestFile, rep.LatestAt.Local().Format(time.RFC3339))
	}
	printf(c, "Total records:   %d\n", rep.TotalRecords)
	printf(c, "Average records: %.2f\n\n", rep.AverageRecords)

	tbl := &output.Table{}
	tbl.SetHeaders("ID", "COUNT")
	for _, ic := range rep.IDCounts {
		tbl.AddRow(ic.ID, strconv.Itoa(ic.Count))
	}
	return tbl.Render(c.App.Writer)
}

type backupRow struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size" table:"bytes"`
	CreatedAt time.Time `json:"created_at" table:"ago"`
	Path      string    `json:"path,omitempty" table:"wide"`
}

func backupList(c *cli.Context) error {
	var rows []backupRow
	if dir := c.String("dir"); dir != "" {
		infos, err := snapshot.List(dir)
		if err != nil {
			return err
		}
		for _, in := range infos {
			rows = append(rows, backupRow{Name: in.Name, Size: in.Size, CreatedAt: in.CreatedAt, Path: in.Path})
		}
	} else {
		list, err := remoteList(c)
		if err != nil {
			return err
		}
		for _, b := range list {
			rows = append(rows, backupRow{Name: b.Name, Size: b.Size, CreatedAt: b.CreatedAt})
		}
	}

	if len(rows) == 0 && settingsFrom(c).Output == output.FormatTable {
		printf(c, "%s\n", snapshot.NoBackupsMessage)
		return nil
	}
	if rows == nil {
		rows = []backupRow{}
	}
	return render(c, rows)
}

func remoteList(c *cli.Context) ([]handler.BackupInfo, error) {
	var resp handler.ListResponse
	if err := apiGet(c, "/admin/v1/backups", &resp); err != nil {
		return nil, err
	}
	return resp.Backups, nil
}

func backupPrune(c *cli.Context) error {
	dir := c.String("dir")
	if dir == "" {
		dir = settingsFrom(c).BackupDir
	}
	if dir == "" {
		return errors.New("prune works on a local directory: pass --dir or set backup_dir")
	}
	keep := c.Int("keep")
	if keep < 1 {
		return errors.New("--keep must be at least 1")
	}

	if c.Bool("dry-run") {
		infos, err := snapshot.List(dir)
		if err != nil {
			return err
		}
		if len(infos) <= keep {
			printf(c, "nothing to prune (%d snapshots)\n", len(infos))
			return nil
		}
		for _, in := range infos[:len(infos)-keep] {
			printf(c, "would delete %s\n", in.Name)
		}
		return nil
	}

	removed, err := snapshot.Prune(dir, keep)
	for _, name := range removed {
		printf(c, "deleted %s\n", name)
	}
	if err != nil {
		return err
	}
	printf(c, "%s\n", output.OK("%d snapshot(s) removed, %d kept at most", len(removed), keep))
	return nil
}

type historyRow struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	Filename string    `json:"filename"`
	Duration string    `json:"duration"`
	Error    string    `json:"error"`
	ID       string    `json:"id" table:"wide"`
}

func backupHistory(c *cli.Context) error {
	limit := c.Int("limit")
	if limit < 1 {
		return errors.New("--limit must be at least 1")
	}

	var resp handler.HistoryResponse
	if err := apiGet(c, "/admin/v1/backups/history?limit="+url.QueryEscape(strconv.Itoa(limit)), &resp); err != nil {
		return err
	}
	if settingsFrom(c).Output != output.FormatTable {
		return render(c, resp.Entries)
	}

	rows := make([]historyRow, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		row := historyRow{Time: e.Time, Kind: e.Kind, Filename: e.Filename, Error: e.Error, ID: e.ID}
		if e.DurationMS > 0 {
			row.Duration = (time.Duration(e.DurationMS) * time.Millisecond).String()
		}
		rows = append(rows, row)
	}
	return render(c, rows)
}

func apiGet(c *cli.Context, path string, target any) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return connection.ParseResponse(resp, target)
}

func apiPost(c *cli.Context, path string, body, target any) error {
	client, err := newClient(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, path, body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return connection.ParseResponse(resp, target)
}
