package etl

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
)

// HistoryMain prints the run journal.
type HistoryMain struct {
	Journal JournalConfig
	Limit   int `help:"Only show this many of the most recent runs. 0 shows all."`

	IO `flag:"-"`
}

// NewHistoryMain gets a new HistoryMain with the default configuration.
func NewHistoryMain() *HistoryMain {
	return &HistoryMain{
		Journal: NewJournalConfig(),
		Limit:   20,
	}
}

// Run prints the runs, oldest first.
func (m *HistoryMain) Run() error {
	m.defaults()
	j, err := m.Journal.Open()
	if err != nil {
		return err
	}
	if j == nil {
		return errors.New("no journal configured")
	}
	defer j.Close()
	runs, err := j.Runs()
	if err != nil {
		return errors.Wrap(err, "listing runs")
	}
	if m.Limit > 0 && len(runs) > m.Limit {
		runs = runs[len(runs)-m.Limit:]
	}
	tw := tabwriter.NewWriter(m.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMMAND\tSTARTED\tDURATION\tOUTCOME\tLINES\tFAILED\tFLAGGED\tFACTS\tINPUT\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%v\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.ID, r.Command, r.Start.Format(time.RFC3339), r.End.Sub(r.Start).Round(time.Millisecond),
			r.Outcome, r.Lines, r.Failed, r.Flagged, r.Facts, r.Input, r.Error)
	}
	return errors.Wrap(tw.Flush(), "flushing")
}
