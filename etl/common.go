package etl

import (
	"fmt"
	"io"
	"os"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/csv"
	"github.com/pilosa/enrollmart/termstat"
	"github.com/pkg/errors"
)

// IO holds the streams a command uses. Zero values mean the process's own.
type IO struct {
	Stdin  io.Reader `flag:"-"`
	Stdout io.Writer `flag:"-"`
	Stderr io.Writer `flag:"-"`
}

func (s *IO) defaults() {
	if s.Stdin == nil {
		s.Stdin = os.Stdin
	}
	if s.Stdout == nil {
		s.Stdout = os.Stdout
	}
	if s.Stderr == nil {
		s.Stderr = os.Stderr
	}
}

// transform runs the pipeline over in. When stats is set, counters are
// printed to w while the run is going.
func transform(in InputConfig, stdin io.Reader, maxPreview int, stats bool, w io.Writer, log enrollmart.Logger) (*enrollmart.Result, error) {
	parser, err := in.Parser()
	if err != nil {
		return nil, err
	}
	src, err := in.Source(stdin)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	defer src.Close()

	p := enrollmart.NewPipeline(parser)
	p.Log = log
	if maxPreview > 0 {
		p.MaxPreview = maxPreview
	}
	if stats {
		c := termstat.NewCollector(w)
		defer c.Close()
		p.Stats = c
	}
	return p.Run(src)
}

// writeOutput writes the interchange directory for res. Every table file is
// rewritten, header only when the run produced no rows, so that tables of an
// earlier run in dir are never loaded by mistake.
func writeOutput(dir string, res *enrollmart.Result) error {
	if err := csv.WriteDiagnostics(dir, res.Diagnostics); err != nil {
		return errors.Wrap(err, "writing diagnostics")
	}
	tables := res.Tables
	if res.Outcome == enrollmart.OutcomeNoRows {
		tables = enrollmart.Tables{}
	}
	return errors.Wrap(csv.WriteTables(dir, tables), "writing tables")
}

func printSummary(w io.Writer, res *enrollmart.Result) {
	s := res.Summary
	fmt.Fprintf(w, "outcome: %s\n", res.Outcome)
	fmt.Fprintf(w, "lines: %d parsed: %d failed: %d flagged: %d blank: %d\n", s.Lines, s.Parsed, s.Failed, s.Flagged, s.Blank)
	for _, r := range s.Reasons() {
		fmt.Fprintf(w, "  %s: %d\n", r, s.ByReason[r])
	}
	t := res.Tables
	fmt.Fprintf(w, "%s: %d %s: %d %s: %d %s: %d\n",
		enrollmart.TableUser, len(t.Users), enrollmart.TableCourse, len(t.Courses),
		enrollmart.TableTime, len(t.Times), enrollmart.TableFact, len(t.Facts))
}

func printCounts(w io.Writer, counts enrollmart.LoadCounts) {
	for _, table := range []string{enrollmart.TableUser, enrollmart.TableCourse, enrollmart.TableTime, enrollmart.TableFact} {
		fmt.Fprintf(w, "%s: %d rows loaded\n", table, counts[table])
	}
}
