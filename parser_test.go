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
	"strings"
	"testing"
	"time"

	"github.com/pilosa/enrollmart/test"
)

func mustParser(t *testing.T, format string) LineParser {
	t.Helper()
	c := NewParserConfig()
	c.Format = format
	p, err := NewLineParser(c)
	test.ErrNil(t, err, "getting parser")
	return p
}

func annEvent() *EnrollmentEvent {
	return &EnrollmentEvent{
		UserID:     42,
		UserName:   "Ann",
		UserCity:   "Kyiv",
		CourseID:   "go-101",
		CourseName: "Go Basics",
		Category:   "dev",
		EventTime:  time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC),
		Price:      100,
	}
}

func TestDelimitedParser(t *testing.T) {
	p := mustParser(t, FormatDelimited)
	withPromo := annEvent()
	withPromo.PromoCode = StringPtr("SPRING")
	withPromo.FinalPrice = Uint32Ptr(80)
	lowerNull := annEvent()
	lowerNull.PromoCode = StringPtr("null")

	tests := []struct {
		line   string
		event  *EnrollmentEvent
		reason Reason
	}{
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL", event: annEvent()},
		{line: " 42 , Ann , Kyiv , go-101 , Go Basics , dev , 2024-03-05T14:07:09Z , 100 , ", event: annEvent()},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,SPRING,80", event: withPromo},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,null", event: lowerNull},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T16:07:09+02:00,100,NULL", event: annEvent()},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09.999Z,100,NULL", event: annEvent()},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05 14:07:09,100,NULL", event: annEvent()},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09,100,NULL,NULL", event: annEvent()},

		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100", reason: ReasonMalformed},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,P,1,2", reason: ReasonMalformed},
		{line: ",Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL", reason: ReasonMalformed},
		{line: "42,Ann,Kyiv,,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL", reason: ReasonMalformed},
		{line: "garbage", reason: ReasonMalformed},
		{line: "4x2,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL", reason: ReasonBadUserID},
		{line: "-42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,NULL", reason: ReasonBadUserID},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,yesterday,100,NULL", reason: ReasonBadTimestamp},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-02-30T00:00:00Z,100,NULL", reason: ReasonBadTimestamp},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,abc,NULL", reason: ReasonBadPrice},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,12.5,NULL", reason: ReasonBadPrice},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,-1,NULL", reason: ReasonBadPrice},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,4294967296,NULL", reason: ReasonBadPrice},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,,NULL", reason: ReasonBadPrice},
		{line: "42,Ann,Kyiv,go-101,Go Basics,dev,2024-03-05T14:07:09Z,100,P,eighty", reason: ReasonBadPrice},
	}
	for i, tst := range tests {
		res := p.ParseLine(i+1, tst.line)
		if tst.event != nil {
			if !res.OK() {
				t.Errorf("test %d: unexpected failure %v", i, res.Failure)
				continue
			}
			test.MustBe(t, tst.event, res.Event, tst.line)
			continue
		}
		if res.OK() {
			t.Errorf("test %d: expected %s, got event %+v", i, tst.reason, res.Event)
			continue
		}
		if res.Failure.Reason != tst.reason {
			t.Errorf("test %d: expected %s, got %s (%s)", i, tst.reason, res.Failure.Reason, res.Failure.Detail)
		}
		if res.Failure.Line != i+1 || res.Failure.Raw != tst.line {
			t.Errorf("test %d: failure does not point at its line: %+v", i, res.Failure)
		}
	}
}

func TestDelimitedParserCustomDelimiter(t *testing.T) {
	c := NewParserConfig()
	c.Delimiter = ";"
	c.NullMarker = "-"
	p, err := NewLineParser(c)
	test.ErrNil(t, err, "getting parser")
	res := p.ParseLine(1, "42;Ann;Kyiv;go-101;Go Basics;dev;2024-03-05T14:07:09Z;100;-")
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Failure)
	}
	test.MustBe(t, annEvent(), res.Event)
}

func TestKVParser(t *testing.T) {
	p := mustParser(t, FormatKV)
	withPromo := annEvent()
	withPromo.PromoCode = StringPtr("SPRING")
	withPromo.FinalPrice = Uint32Ptr(80)

	tests := []struct {
		line   string
		event  *EnrollmentEvent
		reason Reason
	}{
		{
			line:  "2024-03-05T14:07:09Z | enroll | user_id=42;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL",
			event: annEvent(),
		},
		{
			line:  "2024-03-05T14:07:09Z|enroll|user_city=Kyiv;user_name=Ann;user_id=42|category=dev;course_id=go-101;course_name=Go Basics|promo_code=SPRING;price=100;final_price=80",
			event: withPromo,
		},
		{
			line:   "2024-03-05T14:07:09Z | enroll | user_id=42;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev",
			reason: ReasonMalformed,
		},
		{
			line:   "2024-03-05T14:07:09Z | enroll | user_id=42;user_name=Ann | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL",
			reason: ReasonMalformed,
		},
		{
			line:   "2024-03-05T14:07:09Z | enroll | user_id=42;user_id=43;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL",
			reason: ReasonMalformed,
		},
		{
			line:   "2024-03-05T14:07:09Z | enroll | user_id=42;user_name;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL",
			reason: ReasonMalformed,
		},
		{
			line:   "not a time | enroll | user_id=42;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=100;promo_code=NULL",
			reason: ReasonBadTimestamp,
		},
		{
			line:   "2024-03-05T14:07:09Z | enroll | user_id=42;user_name=Ann;user_city=Kyiv | course_id=go-101;course_name=Go Basics;category=dev | price=1e3;promo_code=NULL",
			reason: ReasonBadPrice,
		},
	}
	for i, tst := range tests {
		res := p.ParseLine(i+1, tst.line)
		if tst.event != nil {
			if !res.OK() {
				t.Errorf("test %d: unexpected failure %v", i, res.Failure)
				continue
			}
			test.MustBe(t, tst.event, res.Event, tst.line)
			continue
		}
		if res.OK() || res.Failure.Reason != tst.reason {
			t.Errorf("test %d: expected %s, got %+v", i, tst.reason, res)
		}
	}
}

func TestNewLineParserErrors(t *testing.T) {
	c := NewParserConfig()
	c.Format = "xml"
	if _, err := NewLineParser(c); err == nil {
		t.Fatal("expected error for unknown format")
	}
	c = NewParserConfig()
	c.Delimiter = ""
	if _, err := NewLineParser(c); err == nil {
		t.Fatal("expected error for empty delimiter")
	}
}

func TestParseLineNeverPanics(t *testing.T) {
	inputs := []string{
		"", "|", "||||", ",,,,,,,,", ",,,,,,,,,", strings.Repeat("|", 100),
		"a=b|c=d|e=f|g=h|i=j", "\x00\xff,\xfe", "ts | e | = | = | =",
	}
	for _, format := range []string{FormatDelimited, FormatKV} {
		p := mustParser(t, format)
		for _, in := range inputs {
			res := p.ParseLine(1, in)
			if res.OK() == (res.Failure != nil) {
				t.Errorf("%s %q: result must hold exactly one of event and failure: %+v", format, in, res)
			}
		}
	}
}

func TestUintParser(t *testing.T) {
	p := UintParser{BitSize: 32}
	for in, want := range map[string]uint64{"0": 0, "007": 7, "4294967295": 4294967295} {
		got, err := p.Parse(in)
		test.ErrNil(t, err, in)
		test.MustBe(t, want, got, in)
	}
	for _, in := range []string{"", " 1", "+1", "-0", "1_000", "0x10", "4294967296"} {
		if _, err := p.Parse(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestNullParser(t *testing.T) {
	p := NullParser{Marker: "NULL"}
	test.MustBe(t, true, p.IsNull(""))
	test.MustBe(t, true, p.IsNull("NULL"))
	test.MustBe(t, false, p.IsNull("null"))
	test.MustBe(t, false, p.IsNull("SPRING"))
	test.MustBe(t, false, NullParser{}.IsNull("NULL"))
}
