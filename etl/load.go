package etl

import (
	"fmt"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/csv"
	"github.com/pilosa/enrollmart/logger"
	"github.com/pkg/errors"
)

// LoadMain loads an interchange directory into a store.
type LoadMain struct {
	Dir     string `help:"Directory holding the tables written by transform."`
	Sink    SinkConfig
	Verbose bool `help:"Enable verbose logging."`
	Journal JournalConfig

	IO `flag:"-"`
}

// NewLoadMain gets a new LoadMain with the default configuration.
func NewLoadMain() *LoadMain {
	return &LoadMain{
		Dir:     "output",
		Sink:    NewSinkConfig(),
		Journal: NewJournalConfig(),
	}
}

// Run runs the load.
func (m *LoadMain) Run() (err error) {
	m.defaults()
	log := logger.New(m.Verbose, m.Stderr)
	defer log.Sync()
	rec := &enrollmart.RunRecord{Command: "load", Input: m.Dir, Sink: m.Sink.Type, Start: time.Now().UTC()}
	defer func() { m.Journal.record(rec, err, log) }()

	tables, err := csv.ReadTables(m.Dir)
	if err != nil {
		return errors.Wrap(err, "reading tables")
	}
	rec.Users, rec.Courses, rec.Times, rec.Facts = len(tables.Users), len(tables.Courses), len(tables.Times), len(tables.Facts)
	if tables.Empty() {
		rec.Outcome = enrollmart.OutcomeEmptyInput
		fmt.Fprintf(m.Stdout, "no rows in %s, nothing to load\n", m.Dir)
		return nil
	}

	fmt.Fprintf(m.Stdout, "[1/1] Loading into %s...\n", m.Sink.Type)
	counts, err := m.Sink.Load(tables, log)
	if counts != nil {
		printCounts(m.Stdout, counts)
	}
	if err != nil {
		return errors.Wrap(err, "loading")
	}
	return nil
}
