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

package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ enrollmart.RunLog = &RunLog{}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// RunLog is an enrollmart.RunLog stored in a leveldb directory. Records are
// JSON values under big endian ids, so iteration order is id order.
type RunLog struct {
	lock  sync.Mutex
	db    *leveldb.DB
	curID uint64
}

// NewRunLog opens (creating if needed) the run log in dirname.
func NewRunLog(dirname string) (*RunLog, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	db, err := leveldb.OpenFile(dirname, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", dirname)
	}
	l := &RunLog{db: db}

	iter := db.NewIterator(nil, nil)
	if iter.Last() {
		l.curID = binary.BigEndian.Uint64(iter.Key())
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "finding last id")
	}
	return l, nil
}

// Append implements enrollmart.RunLog.
func (l *RunLog) Append(r enrollmart.RunRecord) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	id := l.curID + 1
	r.ID = id
	val, err := json.Marshal(r)
	if err != nil {
		return 0, errors.Wrap(err, "marshaling record")
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	if err := l.db.Put(key, val, &opt.WriteOptions{Sync: true}); err != nil {
		return 0, errors.Wrap(err, "putting record")
	}
	l.curID = id
	return id, nil
}

// Runs implements enrollmart.RunLog.
func (l *RunLog) Runs() ([]enrollmart.RunRecord, error) {
	var runs []enrollmart.RunRecord
	errs := make(errorList, 0)
	iter := l.db.NewIterator(nil, nil)
	for iter.Next() {
		var r enrollmart.RunRecord
		if err := json.Unmarshal(iter.Value(), &r); err != nil {
			errs = append(errs, errors.Wrapf(err, "unmarshaling run %d", binary.BigEndian.Uint64(iter.Key())))
			continue
		}
		runs = append(runs, r)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		errs = append(errs, errors.Wrap(err, "iterating"))
	}
	if len(errs) > 0 {
		return runs, errs
	}
	return runs, nil
}

// Close closes the underlying leveldb.
func (l *RunLog) Close() error {
	return errors.Wrap(l.db.Close(), "closing leveldb")
}
