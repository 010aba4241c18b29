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

package enrollmart

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// DefaultTimeLayouts are tried in order when parsing event timestamps.
// Layouts without a zone are interpreted as UTC.
var DefaultTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// DefaultNullMarker is the literal which marks an absent optional field.
const DefaultNullMarker = "NULL"

// UintParser parses unsigned base 10 integers which must fit in BitSize bits.
// Signs, spaces, and trailing garbage are all rejected.
type UintParser struct {
	BitSize int
}

// Parse parses field strictly.
func (p UintParser) Parse(field string) (uint64, error) {
	if field == "" {
		return 0, errors.New("empty value")
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, errors.Errorf("unexpected character %q in %q", r, field)
		}
	}
	v, err := strconv.ParseUint(field, 10, p.BitSize)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing %q", field)
	}
	return v, nil
}

// TimeParser is a parser for timestamps with an explicit set of layouts.
type TimeParser struct {
	Layouts []string
}

// Parse returns the UTC time truncated to the second using the first layout
// that matches.
func (p TimeParser) Parse(field string) (time.Time, error) {
	layouts := p.Layouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, field, time.UTC)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, errors.Errorf("%q matches none of %v", field, layouts)
}

// NullParser recognizes optional fields.
type NullParser struct {
	Marker string
}

// IsNull reports whether field denotes an absent value: either empty, or
// equal to the marker.
func (p NullParser) IsNull(field string) bool {
	return field == "" || (p.Marker != "" && field == p.Marker)
}
