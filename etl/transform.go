package etl

import (
	"fmt"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/logger"
	"github.com/pkg/errors"
)

// TransformMain turns a log into an interchange directory of CSV tables.
type TransformMain struct {
	Input      InputConfig
	Out        string `help:"Directory to write the tables and diagnostics to."`
	MaxPreview int    `help:"Runes of a bad line kept in its diagnostic."`
	Stats      bool   `help:"Print counters to stderr while running."`
	Verbose    bool   `help:"Enable verbose logging."`
	Journal    JournalConfig

	IO `flag:"-"`
}

// NewTransformMain gets a new TransformMain with the default configuration.
func NewTransformMain() *TransformMain {
	return &TransformMain{
		Input:      NewInputConfig(),
		Out:        "output",
		MaxPreview: enrollmart.DefaultMaxPreview,
		Journal:    NewJournalConfig(),
	}
}

// Run runs the transform. It fails with enrollmart.ErrNoRowsProduced (use
// errors.Cause) when no line of a non-empty input parses.
func (m *TransformMain) Run() (err error) {
	m.defaults()
	log := logger.New(m.Verbose, m.Stderr)
	defer log.Sync()
	rec := &enrollmart.RunRecord{Command: "transform", Input: m.Input.Name(), Start: time.Now().UTC()}
	defer func() { m.Journal.record(rec, err, log) }()

	fmt.Fprintln(m.Stdout, "[1/1] Transforming...")
	res, err := transform(m.Input, m.Stdin, m.MaxPreview, m.Stats, m.Stderr, log)
	rec.Observe(res)
	if res != nil {
		printSummary(m.Stdout, res)
		if werr := writeOutput(m.Out, res); werr != nil {
			return werr
		}
	}
	if err != nil {
		return errors.Wrap(err, "transforming")
	}
	fmt.Fprintf(m.Stdout, "tables written to %s\n", m.Out)
	return nil
}
