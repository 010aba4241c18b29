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

// Package csv reads and writes the interchange directory which sits between
// the transform and load stages: one header-tagged CSV file per table, plus
// a diagnostics file.
package csv

import (
	"encoding/csv"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
)

// Ext is the extension of every interchange file.
const Ext = ".csv"

// DiagnosticsFile is the name of the diagnostics file in an interchange
// directory.
const DiagnosticsFile = "diagnostics" + Ext

// DiagnosticsHeader is the header of DiagnosticsFile.
var DiagnosticsHeader = []string{"source", "line", "reason", "detail", "preview"}

// Path returns the path of table's file under dir.
func Path(dir, table string) string {
	return filepath.Join(dir, table+Ext)
}

// WriteTables writes every table into dir, creating it if needed. Each file
// is written under a temporary name and renamed once complete, so readers
// never see half-written tables. Null values are written as empty fields.
func WriteTables(dir string, t enrollmart.Tables) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "making output directory")
	}
	err := writeTable(dir, enrollmart.TableUser, len(t.Users), func(i int) []string {
		u := t.Users[i]
		return []string{strconv.FormatUint(u.UserID, 10), u.UserName, u.UserCity}
	})
	if err != nil {
		return err
	}
	err = writeTable(dir, enrollmart.TableCourse, len(t.Courses), func(i int) []string {
		c := t.Courses[i]
		return []string{c.CourseID, c.CourseName, c.Category}
	})
	if err != nil {
		return err
	}
	err = writeTable(dir, enrollmart.TableTime, len(t.Times), func(i int) []string {
		d := t.Times[i]
		return []string{
			d.TimeID.Format(enrollmart.TimeLayout),
			d.Date.Format(enrollmart.DateLayout),
			strconv.Itoa(int(d.Year)),
			strconv.Itoa(int(d.Month)),
			strconv.Itoa(int(d.Day)),
			strconv.Itoa(int(d.Hour)),
		}
	})
	if err != nil {
		return err
	}
	return writeTable(dir, enrollmart.TableFact, len(t.Facts), func(i int) []string {
		f := t.Facts[i]
		rec := []string{
			f.TimeID.Format(enrollmart.TimeLayout),
			strconv.FormatUint(f.UserID, 10),
			f.CourseID,
			strconv.FormatUint(uint64(f.Price), 10),
			"",
			"",
		}
		if f.PromoCode != nil {
			rec[4] = *f.PromoCode
		}
		if f.FinalPrice != nil {
			rec[5] = strconv.FormatUint(uint64(*f.FinalPrice), 10)
		}
		return rec
	})
}

func writeTable(dir, table string, n int, row func(i int) []string) error {
	return writeFile(Path(dir, table), enrollmart.Columns[table], n, row)
}

func writeFile(path string, header []string, n int, row func(i int) []string) (err error) {
	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path))
	if err != nil {
		return errors.Wrapf(err, "creating temp file for %s", path)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()
	w := csv.NewWriter(f)
	if err = w.Write(header); err != nil {
		return errors.Wrapf(err, "writing header of %s", path)
	}
	for i := 0; i < n; i++ {
		if err = w.Write(row(i)); err != nil {
			return errors.Wrapf(err, "writing row %d of %s", i, path)
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return errors.Wrapf(err, "flushing %s", path)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming into %s", path)
	}
	return nil
}

// ReadTables reads the tables written by WriteTables. A missing table file
// reads as an empty table. Facts read back have Line set to zero and
// Flagged unset.
func ReadTables(dir string) (enrollmart.Tables, error) {
	t := enrollmart.Tables{}
	err := readTable(dir, enrollmart.TableUser, func(rec []string) error {
		id, err := parseUint(rec[0], 64)
		if err != nil {
			return errors.Wrap(err, "user_id")
		}
		t.Users = append(t.Users, enrollmart.UserDim{UserID: id, UserName: rec[1], UserCity: rec[2]})
		return nil
	})
	if err != nil {
		return t, err
	}
	err = readTable(dir, enrollmart.TableCourse, func(rec []string) error {
		t.Courses = append(t.Courses, enrollmart.CourseDim{CourseID: rec[0], CourseName: rec[1], Category: rec[2]})
		return nil
	})
	if err != nil {
		return t, err
	}
	err = readTable(dir, enrollmart.TableTime, func(rec []string) error {
		ts, err := time.ParseInLocation(enrollmart.TimeLayout, rec[0], time.UTC)
		if err != nil {
			return errors.Wrap(err, "time_id")
		}
		d := enrollmart.NewTimeDim(ts)
		if got := rec[1]; got != d.Date.Format(enrollmart.DateLayout) {
			return errors.Errorf("date %s does not match time_id %s", got, rec[0])
		}
		for i, want := range []int{int(d.Year), int(d.Month), int(d.Day), int(d.Hour)} {
			if got := rec[2+i]; got != strconv.Itoa(want) {
				return errors.Errorf("%s %s does not match time_id %s", enrollmart.Columns[enrollmart.TableTime][2+i], got, rec[0])
			}
		}
		t.Times = append(t.Times, d)
		return nil
	})
	if err != nil {
		return t, err
	}
	err = readTable(dir, enrollmart.TableFact, func(rec []string) error {
		ts, err := time.ParseInLocation(enrollmart.TimeLayout, rec[0], time.UTC)
		if err != nil {
			return errors.Wrap(err, "time_id")
		}
		uid, err := parseUint(rec[1], 64)
		if err != nil {
			return errors.Wrap(err, "user_id")
		}
		price, err := parseUint(rec[3], 32)
		if err != nil {
			return errors.Wrap(err, "price")
		}
		f := enrollmart.EnrollmentFact{TimeID: ts, UserID: uid, CourseID: rec[2], Price: uint32(price)}
		if rec[4] != "" {
			f.PromoCode = enrollmart.StringPtr(rec[4])
		}
		if rec[5] != "" {
			fp, err := parseUint(rec[5], 32)
			if err != nil {
				return errors.Wrap(err, "final_price")
			}
			f.FinalPrice = enrollmart.Uint32Ptr(uint32(fp))
		}
		t.Facts = append(t.Facts, f)
		return nil
	})
	return t, err
}

func parseUint(s string, bits int) (uint64, error) {
	return enrollmart.UintParser{BitSize: bits}.Parse(s)
}

func readTable(dir, table string, row func(rec []string) error) error {
	path := Path(dir, table)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	header := enrollmart.Columns[table]
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	r.ReuseRecord = true
	got, err := r.Read()
	if err == io.EOF {
		return nil
	} else if err != nil {
		return errors.Wrapf(err, "reading header of %s", path)
	}
	for i := range header {
		if got[i] != header[i] {
			return errors.Errorf("%s: unexpected header %v, want %v", path, got, header)
		}
	}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		if err := row(rec); err != nil {
			return errors.Wrapf(err, "%s line %d", path, line)
		}
	}
}

// WriteDiagnostics writes diags to DiagnosticsFile under dir.
func WriteDiagnostics(dir string, diags []enrollmart.Diagnostic) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "making output directory")
	}
	return writeFile(filepath.Join(dir, DiagnosticsFile), DiagnosticsHeader, len(diags), func(i int) []string {
		d := diags[i]
		return []string{d.Source, strconv.Itoa(d.Line), string(d.Reason), d.Detail, d.Preview}
	})
}

// ReadDiagnostics reads the diagnostics written by WriteDiagnostics. A
// missing file reads as no diagnostics.
func ReadDiagnostics(dir string) ([]enrollmart.Diagnostic, error) {
	path := filepath.Join(dir, DiagnosticsFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = len(DiagnosticsHeader)
	recs, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(recs) == 0 {
		return nil, nil
	}
	var diags []enrollmart.Diagnostic
	for i, rec := range recs[1:] {
		n, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, i+2)
		}
		diags = append(diags, enrollmart.Diagnostic{Source: rec[0], Line: n, Reason: enrollmart.Reason(rec[2]), Detail: rec[3], Preview: rec[4]})
	}
	return diags, nil
}
