package output

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type backupRow struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size" table:"bytes"`
	CreatedAt time.Time `json:"created_at" table:"ago"`
	Path      string    `json:"path" table:"wide"`
	secret    string
	Internal  string `table:"-"`
}

func rows() []backupRow {
	return []backupRow{
		{Name: "a.json", Size: 1500, CreatedAt: time.Now().Add(-3 * time.Minute), Path: "/b/a.json"},
		{Name: "b.json", Size: 2_000_000, CreatedAt: time.Now().Add(-2 * time.Hour), Path: "/b/b.json"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"", FormatTable, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("json: wrong formatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("yaml: wrong formatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Error("table: wrong formatter or wide not set")
	}
}

func TestTableFormatter_Slice(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, rows()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3:\n%s", len(lines), out)
	}

	for _, want := range []string{"NAME", "SIZE", "CREATED_AT", "1.5 kB", "2.0 MB", "3 minutes ago", "2 hours ago"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, unwanted := range []string{"PATH", "INTERNAL", "SECRET", "/b/a.json"} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output contains %q:\n%s", unwanted, out)
		}
	}
}

func TestTableFormatter_Wide(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{Wide: true}).Format(&buf, rows()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "PATH") || !strings.Contains(buf.String(), "/b/a.json") {
		t.Errorf("wide output missing path:\n%s", buf.String())
	}
}

func TestTableFormatter_Struct(t *testing.T) {
	var buf bytes.Buffer
	data := struct {
		Running  bool          `json:"running"`
		Interval time.Duration `json:"interval"`
		Records  int           `json:"records"`
		Average  float64       `json:"average"`
		Latest   *time.Time    `json:"latest"`
	}{Running: true, Interval: 10 * time.Minute, Records: 12345, Average: 2.5}

	if err := (&TableFormatter{}).Format(&buf, &data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"FIELD", "running", "yes", "10m0s", "12,345", "2.50", "latest"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_MapSorted(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{NoHeaders: true}).Format(&buf, map[string]int{"b": 2, "a": 1, "c": 3})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "a") || !strings.HasPrefix(lines[2], "c") {
		t.Errorf("map rows not sorted:\n%s", buf.String())
	}
}

func TestTableFormatter_FallbackToJSON(t *testing.T) {
	var buf bytes.Buffer
	(&TableFormatter{}).Format(&buf, 42)
	if strings.TrimSpace(buf.String()) != "42" {
		t.Errorf("fallback = %q", buf.String())
	}
}

func TestTable_Render(t *testing.T) {
	tbl := &Table{}
	tbl.SetHeaders("ID", "COUNT")
	tbl.AddRow("1", "3")
	tbl.AddRow("10", "12")

	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatal(err)
	}
	want := "ID  COUNT\n1   3\n10  12\n"
	if buf.String() != want {
		t.Errorf("Render() =\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{"CreatedAt": "created_at", "ID": "i_d", "name": "name"}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestYAMLFormatter_UsesJSONTags(t *testing.T) {
	var buf bytes.Buffer
	data := []backupRow{{Name: "a.json", Size: 10}}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "name: a.json") || !strings.Contains(out, "size: 10") {
		t.Errorf("YAML output:\n%s", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	(&JSONFormatter{}).Format(&buf, map[string]int{"a": 1})
	if buf.String() != "{\n  \"a\": 1\n}\n" {
		t.Errorf("JSON output = %q", buf.String())
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner(t *testing.T) {
	var buf syncBuffer
	s := NewSpinner(&buf, "waiting")
	s.interval = 5 * time.Millisecond
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Success("done")
	s.Fail("ignored")
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "waiting") {
		t.Errorf("spinner never drew its message: %q", out)
	}
	if !strings.HasSuffix(out, "✓ done\n") {
		t.Errorf("spinner output = %q, want success line last", out)
	}
	if strings.Contains(out, "ignored") {
		t.Error("second stop wrote output")
	}
}

func TestSpinner_StopWithoutStart(t *testing.T) {
	var buf syncBuffer
	NewSpinner(&buf, "x").Stop()
}
