package etl

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/csv"
	"github.com/pilosa/enrollmart/test"
	"github.com/pkg/errors"
)

const kvLog = `2024-03-05T14:07:09Z | enroll | user_id=1;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL
2024-03-05T15:00:00Z | enroll | user_id=2;user_name=Bob;user_city=Lviv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=SPRING
2024-03-05T15:00:00Z | enroll | user_id=2;user_name=Bob;user_city=Lviv | course_id=go-101;course_name=Go Basics;category=dev | price=free;promo_code=NULL
`

func newTransform(t *testing.T, dir string) (*TransformMain, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	m := NewTransformMain()
	m.Input.Format = enrollmart.FormatKV
	m.Out = filepath.Join(dir, "out")
	m.Journal = JournalConfig{Path: filepath.Join(dir, "runs.db"), Type: JournalBolt}
	m.Stdout = out
	m.Stderr = &bytes.Buffer{}
	return m, out
}

func TestTransformMainFromFile(t *testing.T) {
	dir := test.TempDir(t)
	m, out := newTransform(t, dir)
	m.Input.Path = test.WriteFile(t, dir, "events.log", kvLog)
	test.ErrNil(t, m.Run(), "running transform")

	tables, err := csv.ReadTables(m.Out)
	test.ErrNil(t, err, "reading tables")
	test.MustBe(t, 2, len(tables.Users))
	test.MustBe(t, 1, len(tables.Courses))
	test.MustBe(t, 2, len(tables.Times))
	test.MustBe(t, 2, len(tables.Facts))
	diags, err := csv.ReadDiagnostics(m.Out)
	test.ErrNil(t, err, "reading diagnostics")
	test.MustBe(t, 1, len(diags))
	test.MustBe(t, enrollmart.ReasonBadPrice, diags[0].Reason)
	test.MustBe(t, 3, diags[0].Line)

	s := out.String()
	for _, want := range []string{"[1/1] Transforming...", "outcome: partial", "bad_price: 1", "fact_enrollment: 2"} {
		if !strings.Contains(s, want) {
			t.Errorf("output %q lacks %q", s, want)
		}
	}

	h := NewHistoryMain()
	h.Journal = m.Journal
	hout := &bytes.Buffer{}
	h.Stdout = hout
	test.ErrNil(t, h.Run(), "running history")
	lines := strings.Split(strings.TrimSpace(hout.String()), "\n")
	test.MustBe(t, 2, len(lines))
	if !strings.Contains(lines[1], "transform") || !strings.Contains(lines[1], "partial") {
		t.Fatalf("unexpected history line %q", lines[1])
	}
}

func TestTransformMainFromStdinNoRows(t *testing.T) {
	dir := test.TempDir(t)
	m, _ := newTransform(t, dir)
	m.Input.Path = StdinPath
	m.Stdin = strings.NewReader("nope\nnot | this | either\n")
	err := m.Run()
	if errors.Cause(err) != enrollmart.ErrNoRowsProduced {
		t.Fatalf("expected ErrNoRowsProduced, got %v", err)
	}
	diags, err := csv.ReadDiagnostics(m.Out)
	test.ErrNil(t, err, "reading diagnostics")
	test.MustBe(t, 2, len(diags))
	tables, err := csv.ReadTables(m.Out)
	test.ErrNil(t, err, "reading tables")
	if !tables.Empty() {
		t.Fatal("tables written for a run without rows")
	}

	j, err := m.Journal.Open()
	test.ErrNil(t, err, "opening journal")
	defer j.Close()
	runs, err := j.Runs()
	test.ErrNil(t, err, "listing runs")
	test.MustBe(t, 1, len(runs))
	test.MustBe(t, enrollmart.OutcomeNoRows, runs[0].Outcome)
	if runs[0].Error == "" {
		t.Fatal("error not recorded")
	}
}

func TestTransformMainNoRowsClearsOldTables(t *testing.T) {
	dir := test.TempDir(t)
	m, _ := newTransform(t, dir)
	m.Input.Path = test.WriteFile(t, dir, "events.log", kvLog)
	test.ErrNil(t, m.Run(), "running first transform")
	tables, err := csv.ReadTables(m.Out)
	test.ErrNil(t, err, "reading first tables")
	test.MustBe(t, 2, len(tables.Facts))

	again, _ := newTransform(t, dir)
	again.Input.Path = StdinPath
	again.Stdin = strings.NewReader("garbage\n")
	if err := again.Run(); errors.Cause(err) != enrollmart.ErrNoRowsProduced {
		t.Fatalf("expected ErrNoRowsProduced, got %v", err)
	}
	tables, err = csv.ReadTables(again.Out)
	test.ErrNil(t, err, "reading second tables")
	if !tables.Empty() {
		t.Fatalf("tables of the earlier run are still in %s: %+v", again.Out, tables)
	}

	l := NewLoadMain()
	l.Dir = again.Out
	l.Journal.Path = ""
	out := &bytes.Buffer{}
	l.Stdout, l.Stderr = out, &bytes.Buffer{}
	test.ErrNil(t, l.Run(), "loading after failed transform")
	if !strings.Contains(out.String(), "nothing to load") {
		t.Fatalf("unexpected load output %q", out.String())
	}
}

func TestTransformMainEmptyInput(t *testing.T) {
	dir := test.TempDir(t)
	m, out := newTransform(t, dir)
	m.Stdin = strings.NewReader("\n\n")
	test.ErrNil(t, m.Run(), "running transform")
	if !strings.Contains(out.String(), "outcome: empty_input") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunMainUnknownSink(t *testing.T) {
	dir := test.TempDir(t)
	m := NewRunMain()
	m.Input.Format = enrollmart.FormatKV
	m.Input.Path = test.WriteFile(t, dir, "events.log", kvLog)
	m.Out = filepath.Join(dir, "out")
	m.Sink.Type = "postgres"
	m.Journal = JournalConfig{Path: filepath.Join(dir, "runs"), Type: JournalLevelDB}
	m.Stdout = &bytes.Buffer{}
	m.Stderr = &bytes.Buffer{}
	if err := m.Run(); err == nil || !strings.Contains(err.Error(), "unknown sink") {
		t.Fatalf("expected unknown sink error, got %v", err)
	}
	// The interchange files are still written.
	tables, err := csv.ReadTables(m.Out)
	test.ErrNil(t, err, "reading tables")
	test.MustBe(t, 2, len(tables.Facts))

	j, err := m.Journal.Open()
	test.ErrNil(t, err, "opening journal")
	defer j.Close()
	runs, err := j.Runs()
	test.ErrNil(t, err, "listing runs")
	test.MustBe(t, enrollmart.OutcomeFailed, runs[0].Outcome)
	test.MustBe(t, "postgres", runs[0].Sink)
}

func TestLoadMainEmptyDir(t *testing.T) {
	dir := test.TempDir(t)
	m := NewLoadMain()
	m.Dir = dir
	m.Journal.Path = ""
	out := &bytes.Buffer{}
	m.Stdout = out
	m.Stderr = &bytes.Buffer{}
	test.ErrNil(t, m.Run(), "loading empty dir")
	if !strings.Contains(out.String(), "nothing to load") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestJournalConfig(t *testing.T) {
	j, err := JournalConfig{}.Open()
	test.ErrNil(t, err, "opening disabled journal")
	if j != nil {
		t.Fatal("expected no journal")
	}
	if _, err := (JournalConfig{Path: "x", Type: "sqlite"}).Open(); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestInputConfigName(t *testing.T) {
	c := NewInputConfig()
	test.MustBe(t, "-", c.Name())
	c.S3Bucket = "logs"
	c.S3Prefix = "2024/"
	test.MustBe(t, "s3://logs/2024/", c.Name())
}
