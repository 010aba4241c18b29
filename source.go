package enrollmart

import (
	"bufio"
	"io"
	"io/ioutil"
	"strings"

	"github.com/pkg/errors"
)

// Line is one raw line of input along with where it came from.
type Line struct {
	// Name identifies the file or object the line was read from.
	Name string
	// Num is the 1-based line number within Name.
	Num  int
	Text string
}

// Source is the interface for getting raw log lines one at a time. Record
// ordering matters: Line must return lines in input order, and io.EOF once
// there are none left. Any other error aborts the run.
type Source interface {
	Line() (Line, error)
}

// NamedReadCloser is a ReadCloser which knows the name of what it reads
// (e.g. a file name or an S3 object key).
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource hands out readers one after another. NextReader returns io.EOF
// when there are no more.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// DefaultMaxLineSize is the longest line a LineSource will accept.
const DefaultMaxLineSize = 1 << 20

// LineSource is a Source which scans every reader handed out by a RawSource
// line by line. Line numbers restart at 1 for each reader.
type LineSource struct {
	rs          RawSource
	maxLineSize int

	cur  NamedReadCloser
	scan *bufio.Scanner
	num  int
}

// LineSourceOption is a functional option for LineSource.
type LineSourceOption func(s *LineSource)

// OptLineSourceMaxLineSize sets the longest line (in bytes) the source will
// read before failing.
func OptLineSourceMaxLineSize(n int) LineSourceOption {
	return func(s *LineSource) {
		if n > 0 {
			s.maxLineSize = n
		}
	}
}

// NewLineSource gets a new LineSource reading from rs.
func NewLineSource(rs RawSource, opts ...LineSourceOption) *LineSource {
	s := &LineSource{
		rs:          rs,
		maxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Line implements Source.
func (s *LineSource) Line() (Line, error) {
	for {
		if s.cur == nil {
			next, err := s.rs.NextReader()
			if err == io.EOF {
				return Line{}, io.EOF
			} else if err != nil {
				return Line{}, errors.Wrap(err, "getting next reader")
			}
			s.cur = next
			s.num = 0
			s.scan = bufio.NewScanner(next)
			initial := 64 * 1024
			if initial > s.maxLineSize {
				initial = s.maxLineSize
			}
			s.scan.Buffer(make([]byte, 0, initial), s.maxLineSize)
		}
		if s.scan.Scan() {
			s.num++
			return Line{Name: s.cur.Name(), Num: s.num, Text: strings.TrimSuffix(s.scan.Text(), "\r")}, nil
		}
		name := s.cur.Name()
		err := s.scan.Err()
		cerr := s.cur.Close()
		s.cur, s.scan = nil, nil
		if err != nil {
			return Line{}, errors.Wrapf(err, "scanning %s after line %d", name, s.num)
		}
		if cerr != nil {
			return Line{}, errors.Wrapf(cerr, "closing %s", name)
		}
	}
}

// Close closes the reader currently being scanned, if any.
func (s *LineSource) Close() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur, s.scan = nil, nil
	return err
}

// ReaderSource is a RawSource over a fixed list of readers. It is mostly
// useful for tests and for reading stdin.
type ReaderSource struct {
	readers []NamedReadCloser
}

// NewReaderSource returns a RawSource which hands out r once under name.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = ioutil.NopCloser(r)
	}
	return &ReaderSource{readers: []NamedReadCloser{&namedReader{ReadCloser: rc, name: name}}}
}

// NextReader implements RawSource.
func (s *ReaderSource) NextReader() (NamedReadCloser, error) {
	if len(s.readers) == 0 {
		return nil, io.EOF
	}
	r := s.readers[0]
	s.readers = s.readers[1:]
	return r, nil
}

type namedReader struct {
	io.ReadCloser
	name string
}

func (n *namedReader) Name() string { return n.name }

// StringSource returns a Source over the lines of text. It is the quickest
// way to run a pipeline over an in-memory log.
func StringSource(name, text string) *LineSource {
	return NewLineSource(NewReaderSource(name, strings.NewReader(text)))
}
