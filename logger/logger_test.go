package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pilosa/enrollmart"
)

var _ enrollmart.Logger = &Logger{}

func TestStandardLoggerDropsDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewStandardLogger(buf)
	l.Printf("loaded %d rows into %s", 3, "dim_user")
	l.Debugf("line %d: %s", 7, "bad_price")
	l.Sync()

	out := buf.String()
	if !strings.Contains(out, "loaded 3 rows into dim_user") {
		t.Fatalf("missing info entry in %q", out)
	}
	if strings.Contains(out, "bad_price") {
		t.Fatalf("debug entry written by standard logger: %q", out)
	}
}

func TestVerboseLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewVerboseLogger(buf).With("run", 12)
	l.Debugf("line %d: %s", 7, "bad_price")
	l.Sync()

	out := buf.String()
	if !strings.Contains(out, "line 7: bad_price") {
		t.Fatalf("missing debug entry in %q", out)
	}
	if !strings.Contains(out, "12") {
		t.Fatalf("missing field in %q", out)
	}
}

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(true, buf)
	l.Debugf("verbose %s", "entry")
	l.Sync()
	if !strings.Contains(buf.String(), "verbose entry") {
		t.Fatalf("verbose logger dropped debug entry: %q", buf.String())
	}

	buf.Reset()
	l = New(false, buf)
	l.Debugf("quiet %s", "entry")
	l.Printf("info %s", "entry")
	l.Sync()
	if strings.Contains(buf.String(), "quiet entry") || !strings.Contains(buf.String(), "info entry") {
		t.Fatalf("unexpected standard logger output: %q", buf.String())
	}

	if New(false, nil).SugaredLogger == nil {
		t.Fatal("expected a logger writing to stderr")
	}
}
