package etl

import (
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/boltdb"
	"github.com/pilosa/enrollmart/leveldb"
	"github.com/pkg/errors"
)

// Journal types.
const (
	JournalLevelDB = "leveldb"
	JournalBolt    = "bolt"
)

// JournalConfig says where runs are recorded. An empty Path disables the
// journal.
type JournalConfig struct {
	Path string `help:"Run journal location. Empty disables the journal."`
	Type string `help:"Run journal store: 'leveldb' (a directory) or 'bolt' (a file)."`
}

// NewJournalConfig returns the defaults: a leveldb journal in
// ./enrollmart-runs.
func NewJournalConfig() JournalConfig {
	return JournalConfig{
		Path: "enrollmart-runs",
		Type: JournalLevelDB,
	}
}

// Open opens the journal, or returns nil if it is disabled.
func (c JournalConfig) Open() (enrollmart.RunLog, error) {
	if c.Path == "" {
		return nil, nil
	}
	switch c.Type {
	case JournalLevelDB, "":
		l, err := leveldb.NewRunLog(c.Path)
		if err != nil {
			return nil, errors.Wrap(err, "opening leveldb journal")
		}
		return l, nil
	case JournalBolt:
		l, err := boltdb.NewRunLog(c.Path)
		if err != nil {
			return nil, errors.Wrap(err, "opening bolt journal")
		}
		return l, nil
	default:
		return nil, errors.Errorf("unknown journal type '%s'", c.Type)
	}
}

// record appends rec to the journal at c, finishing it with err. Failures
// to record are logged, not returned.
func (c JournalConfig) record(rec *enrollmart.RunRecord, err error, log enrollmart.Logger) {
	rec.End = time.Now().UTC()
	rec.Fail(err)
	if rec.Outcome == "" {
		rec.Outcome = enrollmart.OutcomeSuccess
	}
	j, jerr := c.Open()
	if jerr != nil {
		log.Printf("recording run: %v", jerr)
		return
	}
	if j == nil {
		return
	}
	defer j.Close()
	id, jerr := j.Append(*rec)
	if jerr != nil {
		log.Printf("recording run: %v", jerr)
		return
	}
	log.Debugf("recorded run %d", id)
}
