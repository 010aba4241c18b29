package enrollmart

import (
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Error is a constant error type, so that sentinel errors can be declared as
// constants.
type Error string

func (e Error) Error() string { return string(e) }

// ErrNoRowsProduced is returned from Pipeline.Run when the input had at least
// one non-blank line but none of them parsed. The Result is still returned so
// that the caller can report the diagnostics.
const ErrNoRowsProduced = Error("no_rows_produced: input was not empty but no line could be parsed")

// Outcome summarizes how a run went.
type Outcome string

// Outcomes of a run.
const (
	OutcomeSuccess    Outcome = "success"
	OutcomePartial    Outcome = "partial"
	OutcomeEmptyInput Outcome = "empty_input"
	OutcomeNoRows     Outcome = "no_rows_produced"
	// OutcomeFailed is never produced by a Pipeline; it is recorded by callers
	// when reading input or loading rows fails.
	OutcomeFailed Outcome = "failed"
)

// DefaultMaxPreview is the default number of runes of a bad line kept in its
// Diagnostic.
const DefaultMaxPreview = 120

// Diagnostic describes one line which failed to parse, or one fact which was
// flagged.
type Diagnostic struct {
	Source  string
	Line    int
	Reason  Reason
	Preview string
	Detail  string
}

// Summary holds the counters of a run.
type Summary struct {
	// Lines counts non-blank input lines.
	Lines   int
	Blank   int
	Parsed  int
	Failed  int
	Flagged int

	ByReason map[Reason]int
}

// Reasons returns the reasons present in ByReason, sorted.
func (s Summary) Reasons() []Reason {
	ret := make([]Reason, 0, len(s.ByReason))
	for r := range s.ByReason {
		ret = append(ret, r)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Result is everything a run produces.
type Result struct {
	Tables      Tables
	Diagnostics []Diagnostic
	Summary     Summary
	Outcome     Outcome
	Duration    time.Duration
}

// Pipeline turns log lines into star schema rows. A Pipeline holds only
// configuration; every call to Run uses fresh registries, so a Pipeline may
// be used for several runs, including concurrent ones. Log and Stats may be
// left nil.
type Pipeline struct {
	Parser     LineParser
	MaxPreview int

	Log   Logger
	Stats Statter
}

// NewPipeline gets a Pipeline with the given parser, no logging, and no
// stats.
func NewPipeline(parser LineParser) *Pipeline {
	return &Pipeline{
		Parser:     parser,
		MaxPreview: DefaultMaxPreview,
		Log:        NopLogger{},
		Stats:      NopStatter{},
	}
}

// Run reads src to the end. Bad lines never stop a run; they are recorded in
// Result.Diagnostics. An error is returned only if src fails, or with the
// Result if nothing at all could be parsed (ErrNoRowsProduced).
func (p *Pipeline) Run(src Source) (*Result, error) {
	start := time.Now()
	r := p.newRun()
	for {
		line, err := src.Line()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "reading input")
		}
		r.step(line)
	}
	res := r.finalize()
	res.Duration = time.Since(start)
	r.stats.Timing("transform", res.Duration, 1)
	r.log.Printf("transform finished in %v: %d lines, %d parsed, %d failed, %d flagged; %d users, %d courses, %d times, %d facts",
		res.Duration, res.Summary.Lines, res.Summary.Parsed, res.Summary.Failed, res.Summary.Flagged,
		len(res.Tables.Users), len(res.Tables.Courses), len(res.Tables.Times), len(res.Tables.Facts))
	if res.Outcome == OutcomeNoRows {
		return res, ErrNoRowsProduced
	}
	return res, nil
}

// run holds the state of a single Pipeline.Run.
type run struct {
	parser     LineParser
	maxPreview int
	log        Logger
	stats      Statter

	users   *UserRegistry
	courses *CourseRegistry
	times   *TimeRegistry
	facts   FactBuilder

	rows    []EnrollmentFact
	diags   []Diagnostic
	summary Summary
}

// newRun starts a run. A nil Log or Stats means none.
func (p *Pipeline) newRun() *run {
	r := &run{
		parser:     p.Parser,
		maxPreview: p.MaxPreview,
		log:        p.Log,
		stats:      p.Stats,
		users:      NewUserRegistry(),
		courses:    NewCourseRegistry(),
		times:      NewTimeRegistry(),
		summary:    Summary{ByReason: make(map[Reason]int)},
	}
	if r.log == nil {
		r.log = NopLogger{}
	}
	if r.stats == nil {
		r.stats = NopStatter{}
	}
	return r
}

func (r *run) step(line Line) {
	if strings.TrimSpace(line.Text) == "" {
		r.summary.Blank++
		return
	}
	r.summary.Lines++
	r.stats.Count("lines", 1, 1)

	res := r.parser.ParseLine(line.Num, line.Text)
	if !res.OK() {
		r.summary.Failed++
		r.stats.Count("failed", 1, 1)
		r.record(line, res.Failure)
		return
	}
	r.summary.Parsed++
	r.stats.Count("parsed", 1, 1)

	ev := res.Event
	keys := FactKeys{
		TimeID:   r.times.Register(ev),
		UserID:   r.users.Register(ev),
		CourseID: r.courses.Register(ev),
	}
	fact, flag := r.facts.Build(line.Num, ev, keys)
	if flag != nil {
		flag.Raw = line.Text
		r.summary.Flagged++
		r.stats.Count("flagged", 1, 1)
		r.record(line, flag)
	}
	r.rows = append(r.rows, fact)
	r.stats.Count("facts", 1, 1)
}

func (r *run) record(line Line, f *ParseFailure) {
	r.summary.ByReason[f.Reason]++
	r.stats.Count("failed."+string(f.Reason), 1, 1)
	d := Diagnostic{
		Source:  line.Name,
		Line:    line.Num,
		Reason:  f.Reason,
		Preview: Preview(line.Text, r.maxPreview),
		Detail:  f.Detail,
	}
	r.log.Debugf("%s:%d: %s: %s", d.Source, d.Line, d.Reason, d.Detail)
	r.diags = append(r.diags, d)
}

func (r *run) finalize() *Result {
	res := &Result{
		Tables: Tables{
			Users:   r.users.Rows(),
			Courses: r.courses.Rows(),
			Times:   r.times.Rows(),
			Facts:   r.rows,
		},
		Diagnostics: r.diags,
		Summary:     r.summary,
	}
	switch {
	case r.summary.Lines == 0:
		res.Outcome = OutcomeEmptyInput
	case r.summary.Parsed == 0:
		res.Outcome = OutcomeNoRows
	case r.summary.Failed > 0 || r.summary.Flagged > 0:
		res.Outcome = OutcomePartial
	default:
		res.Outcome = OutcomeSuccess
	}
	return res
}

// Preview returns s unchanged if it has at most max runes. Otherwise it
// returns the first max runes followed by "...". A max of zero or less means
// DefaultMaxPreview.
func Preview(s string, max int) string {
	if max <= 0 {
		max = DefaultMaxPreview
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
