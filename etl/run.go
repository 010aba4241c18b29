package etl

import (
	"fmt"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/logger"
	"github.com/pkg/errors"
)

// RunMain transforms a log and loads the result in one go. The interchange
// directory is only written when Out is set.
type RunMain struct {
	Input      InputConfig
	Out        string `help:"If set, also write the tables and diagnostics to this directory."`
	MaxPreview int    `help:"Runes of a bad line kept in its diagnostic."`
	Sink       SinkConfig
	Stats      bool `help:"Print counters to stderr while running."`
	Verbose    bool `help:"Enable verbose logging."`
	Journal    JournalConfig

	IO `flag:"-"`
}

// NewRunMain gets a new RunMain with the default configuration.
func NewRunMain() *RunMain {
	return &RunMain{
		Input:      NewInputConfig(),
		MaxPreview: enrollmart.DefaultMaxPreview,
		Sink:       NewSinkConfig(),
		Journal:    NewJournalConfig(),
	}
}

// Run runs the transform, then the load.
func (m *RunMain) Run() (err error) {
	m.defaults()
	log := logger.New(m.Verbose, m.Stderr)
	defer log.Sync()
	rec := &enrollmart.RunRecord{Command: "run", Input: m.Input.Name(), Sink: m.Sink.Type, Start: time.Now().UTC()}
	defer func() { m.Journal.record(rec, err, log) }()

	fmt.Fprintln(m.Stdout, "[1/2] Transforming...")
	res, err := transform(m.Input, m.Stdin, m.MaxPreview, m.Stats, m.Stderr, log)
	rec.Observe(res)
	if res != nil {
		printSummary(m.Stdout, res)
		if m.Out != "" {
			if werr := writeOutput(m.Out, res); werr != nil {
				return werr
			}
		}
	}
	if err != nil {
		return errors.Wrap(err, "transforming")
	}
	if res.Outcome == enrollmart.OutcomeEmptyInput {
		fmt.Fprintln(m.Stdout, "[2/2] Nothing to load.")
		return nil
	}

	fmt.Fprintf(m.Stdout, "[2/2] Loading into %s...\n", m.Sink.Type)
	counts, err := m.Sink.Load(res.Tables, log)
	if counts != nil {
		printCounts(m.Stdout, counts)
	}
	if err != nil {
		return errors.Wrap(err, "loading")
	}
	fmt.Fprintf(m.Stdout, "done in %v\n", time.Since(rec.Start).Round(time.Millisecond))
	return nil
}
