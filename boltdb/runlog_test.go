// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package boltdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/test"
)

func record(cmd string, outcome enrollmart.Outcome) enrollmart.RunRecord {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return enrollmart.RunRecord{
		Command:  cmd,
		Input:    "logs/",
		Start:    start,
		End:      start.Add(3 * time.Second),
		Outcome:  outcome,
		Lines:    10,
		Parsed:   8,
		Failed:   2,
		ByReason: map[enrollmart.Reason]int{enrollmart.ReasonBadPrice: 2},
		Users:    3,
		Facts:    8,
	}
}

func TestRunLog(t *testing.T) {
	dir := test.TempDir(t)
	l, err := NewRunLog(filepath.Join(dir, "runs.db"))
	test.ErrNil(t, err, "opening run log")

	runs, err := l.Runs()
	test.ErrNil(t, err, "listing empty log")
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %v", runs)
	}

	id, err := l.Append(record("transform", enrollmart.OutcomePartial))
	test.ErrNil(t, err, "appending first")
	test.MustBe(t, uint64(1), id)
	id, err = l.Append(record("run", enrollmart.OutcomeSuccess))
	test.ErrNil(t, err, "appending second")
	test.MustBe(t, uint64(2), id)
	test.ErrNil(t, l.Close(), "closing")

	// Reopening keeps the records and continues the sequence.
	l, err = NewRunLog(filepath.Join(dir, "runs.db"))
	test.ErrNil(t, err, "reopening run log")
	defer l.Close()
	id, err = l.Append(record("load", enrollmart.OutcomeFailed))
	test.ErrNil(t, err, "appending third")
	test.MustBe(t, uint64(3), id)

	runs, err = l.Runs()
	test.ErrNil(t, err, "listing runs")
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	want := record("transform", enrollmart.OutcomePartial)
	want.ID = 1
	test.MustBe(t, want, runs[0])
	for i, cmd := range []string{"transform", "run", "load"} {
		test.MustBe(t, uint64(i+1), runs[i].ID)
		test.MustBe(t, cmd, runs[i].Command)
	}
}
