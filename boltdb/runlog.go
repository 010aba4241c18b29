// Package boltdb provides an enrollmart.RunLog stored in a boltdb file.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
)

var runsBucket = []byte("runs")

var _ enrollmart.RunLog = &RunLog{}

// RunLog is an enrollmart.RunLog which keeps records as JSON in a single
// bucket keyed by big endian sequence numbers.
type RunLog struct {
	Db *bolt.DB
}

// NewRunLog opens (creating if needed) the run log at filename.
func NewRunLog(filename string) (*RunLog, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return errors.Wrap(err, "creating runs bucket")
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return &RunLog{Db: db}, nil
}

// Append implements enrollmart.RunLog.
func (l *RunLog) Append(r enrollmart.RunRecord) (id uint64, err error) {
	err = l.Db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		id, err = b.NextSequence()
		if err != nil {
			return errors.Wrap(err, "getting next sequence")
		}
		r.ID = id
		val, err := json.Marshal(r)
		if err != nil {
			return errors.Wrap(err, "marshaling record")
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, id)
		return errors.Wrap(b.Put(key, val), "putting record")
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Runs implements enrollmart.RunLog.
func (l *RunLog) Runs() ([]enrollmart.RunRecord, error) {
	var runs []enrollmart.RunRecord
	err := l.Db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, v []byte) error {
			var r enrollmart.RunRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return errors.Wrapf(err, "unmarshaling run %d", binary.BigEndian.Uint64(k))
			}
			runs = append(runs, r)
			return nil
		})
	})
	return runs, err
}

// Close syncs and closes the underlying boltdb.
func (l *RunLog) Close() error {
	err := l.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return l.Db.Close()
}
