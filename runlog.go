package enrollmart

import (
	"time"
)

// RunRecord is one entry of the run journal.
type RunRecord struct {
	ID      uint64    `json:"id"`
	Command string    `json:"command"`
	Input   string    `json:"input"`
	Sink    string    `json:"sink,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Outcome Outcome   `json:"outcome"`

	Lines    int            `json:"lines"`
	Parsed   int            `json:"parsed"`
	Failed   int            `json:"failed"`
	Flagged  int            `json:"flagged"`
	ByReason map[Reason]int `json:"by_reason,omitempty"`

	Users   int `json:"users"`
	Courses int `json:"courses"`
	Times   int `json:"times"`
	Facts   int `json:"facts"`

	Error string `json:"error,omitempty"`
}

// Observe copies counts and the outcome from res into r.
func (r *RunRecord) Observe(res *Result) {
	if res == nil {
		return
	}
	r.Outcome = res.Outcome
	r.Lines = res.Summary.Lines
	r.Parsed = res.Summary.Parsed
	r.Failed = res.Summary.Failed
	r.Flagged = res.Summary.Flagged
	r.ByReason = res.Summary.ByReason
	r.Users = len(res.Tables.Users)
	r.Courses = len(res.Tables.Courses)
	r.Times = len(res.Tables.Times)
	r.Facts = len(res.Tables.Facts)
}

// Fail marks r as failed with err.
func (r *RunRecord) Fail(err error) {
	if err == nil {
		return
	}
	if r.Outcome != OutcomeNoRows {
		r.Outcome = OutcomeFailed
	}
	r.Error = err.Error()
}

// RunLog is a durable, append-only journal of runs. Implementations live in
// the boltdb and leveldb packages.
type RunLog interface {
	// Append stores r and returns the ID assigned to it. IDs increase
	// monotonically.
	Append(r RunRecord) (uint64, error)
	// Runs returns every stored record, oldest first.
	Runs() ([]RunRecord, error)
	Close() error
}
