package enrollmart

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Reason classifies why a line did not become a clean fact.
type Reason string

// Per-line reasons. Every one of them is recovered locally; the run
// continues with the next line.
const (
	ReasonMalformed    Reason = "malformed_structure"
	ReasonBadTimestamp Reason = "bad_timestamp"
	ReasonBadPrice     Reason = "bad_price"
	ReasonBadUserID    Reason = "bad_user_id"

	// ReasonInconsistentDiscount marks a fact whose final_price exceeds its
	// price. The fact is kept and flagged.
	ReasonInconsistentDiscount Reason = "inconsistent_discount"
)

// ParseFailure describes a line which could not be parsed.
type ParseFailure struct {
	Line   int
	Raw    string
	Reason Reason
	Detail string
}

func (f *ParseFailure) Error() string {
	return fmt.Sprintf("line %d: %s: %s", f.Line, f.Reason, f.Detail)
}

// ParseResult holds exactly one of Event or Failure.
type ParseResult struct {
	Event   *EnrollmentEvent
	Failure *ParseFailure
}

// OK reports whether the line parsed.
func (r ParseResult) OK() bool { return r.Event != nil }

// LineParser turns one raw line into a ParseResult. Implementations must be
// pure functions of their arguments and must never panic on bad input.
type LineParser interface {
	ParseLine(num int, line string) ParseResult
}

// LineParserFunc can be wrapped around a function to make it implement the
// LineParser interface. Similar to http.HandlerFunc.
type LineParserFunc func(num int, line string) ParseResult

// ParseLine implements LineParser for LineParserFunc.
func (f LineParserFunc) ParseLine(num int, line string) ParseResult { return f(num, line) }

// Supported input formats.
const (
	FormatDelimited = "delimited"
	FormatKV        = "kv"
)

// ParserConfig holds the knobs shared by all line formats.
type ParserConfig struct {
	Format      string
	Delimiter   string
	NullMarker  string
	TimeLayouts []string
}

// NewParserConfig returns the default configuration: comma delimited, "NULL"
// null marker, DefaultTimeLayouts.
func NewParserConfig() ParserConfig {
	return ParserConfig{
		Format:      FormatDelimited,
		Delimiter:   ",",
		NullMarker:  DefaultNullMarker,
		TimeLayouts: DefaultTimeLayouts,
	}
}

// NewLineParser returns the LineParser for c.Format.
func NewLineParser(c ParserConfig) (LineParser, error) {
	fp := fieldParser{
		times: TimeParser{Layouts: c.TimeLayouts},
		nulls: NullParser{Marker: c.NullMarker},
	}
	switch c.Format {
	case FormatDelimited, "":
		if c.Delimiter == "" {
			return nil, errors.New("delimiter must not be empty")
		}
		return &DelimitedParser{Delimiter: c.Delimiter, fp: fp}, nil
	case FormatKV:
		return &KVParser{fp: fp}, nil
	default:
		return nil, errors.Errorf("unknown input format '%s'", c.Format)
	}
}

// rawFields holds the text of every field of one line before coercion.
type rawFields struct {
	userID, userName, userCity          string
	courseID, courseName, category      string
	timestamp, price, promo, finalPrice string
}

type fieldParser struct {
	times TimeParser
	nulls NullParser
}

var (
	userIDParser = UintParser{BitSize: 64}
	priceParser  = UintParser{BitSize: 32}
)

// build coerces raw into an event. The returned failure has no Line or Raw
// set; the caller fills those in.
func (p fieldParser) build(raw rawFields) (*EnrollmentEvent, *ParseFailure) {
	if raw.userID == "" {
		return nil, &ParseFailure{Reason: ReasonMalformed, Detail: "missing user_id"}
	}
	if raw.courseID == "" {
		return nil, &ParseFailure{Reason: ReasonMalformed, Detail: "missing course_id"}
	}
	uid, err := userIDParser.Parse(raw.userID)
	if err != nil {
		return nil, &ParseFailure{Reason: ReasonBadUserID, Detail: err.Error()}
	}
	ts, err := p.times.Parse(raw.timestamp)
	if err != nil {
		return nil, &ParseFailure{Reason: ReasonBadTimestamp, Detail: err.Error()}
	}
	price, err := priceParser.Parse(raw.price)
	if err != nil {
		return nil, &ParseFailure{Reason: ReasonBadPrice, Detail: err.Error()}
	}
	ev := &EnrollmentEvent{
		UserID:     uid,
		UserName:   raw.userName,
		UserCity:   raw.userCity,
		CourseID:   raw.courseID,
		CourseName: raw.courseName,
		Category:   raw.category,
		EventTime:  ts,
		Price:      uint32(price),
	}
	if !p.nulls.IsNull(raw.promo) {
		ev.PromoCode = StringPtr(raw.promo)
	}
	if !p.nulls.IsNull(raw.finalPrice) {
		fp, err := priceParser.Parse(raw.finalPrice)
		if err != nil {
			return nil, &ParseFailure{Reason: ReasonBadPrice, Detail: "final_price: " + err.Error()}
		}
		ev.FinalPrice = Uint32Ptr(uint32(fp))
	}
	return ev, nil
}

func result(num int, line string, ev *EnrollmentEvent, f *ParseFailure) ParseResult {
	if f != nil {
		f.Line = num
		f.Raw = line
		return ParseResult{Failure: f}
	}
	return ParseResult{Event: ev}
}

// DelimitedParser parses positional lines:
//
//	user_id,user_name,user_city,course_id,course_name,category,timestamp,price,promo_code[,final_price]
type DelimitedParser struct {
	Delimiter string

	fp fieldParser
}

const (
	delimitedFields     = 9
	delimitedFieldsWide = 10
)

// ParseLine implements LineParser.
func (p *DelimitedParser) ParseLine(num int, line string) ParseResult {
	fields := strings.Split(line, p.Delimiter)
	if len(fields) != delimitedFields && len(fields) != delimitedFieldsWide {
		return result(num, line, nil, &ParseFailure{
			Reason: ReasonMalformed,
			Detail: fmt.Sprintf("expected %d or %d fields, got %d", delimitedFields, delimitedFieldsWide, len(fields)),
		})
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	raw := rawFields{
		userID:     fields[0],
		userName:   fields[1],
		userCity:   fields[2],
		courseID:   fields[3],
		courseName: fields[4],
		category:   fields[5],
		timestamp:  fields[6],
		price:      fields[7],
		promo:      fields[8],
	}
	if len(fields) == delimitedFieldsWide {
		raw.finalPrice = fields[9]
	}
	ev, f := p.fp.build(raw)
	return result(num, line, ev, f)
}

// KVParser parses the sectioned log format:
//
//	<timestamp> | <event> | user_id=..;user_name=..;user_city=.. | course_id=..;course_name=..;category=.. | price=..;promo_code=..[;final_price=..]
//
// The event section is not interpreted.
type KVParser struct {
	fp fieldParser
}

const kvSections = 5

// ParseLine implements LineParser.
func (p *KVParser) ParseLine(num int, line string) ParseResult {
	sections := strings.Split(line, "|")
	if len(sections) != kvSections {
		return result(num, line, nil, &ParseFailure{
			Reason: ReasonMalformed,
			Detail: fmt.Sprintf("expected %d sections, got %d", kvSections, len(sections)),
		})
	}
	user, err := parsePairs(sections[2], "user_id", "user_name", "user_city")
	if err != nil {
		return result(num, line, nil, &ParseFailure{Reason: ReasonMalformed, Detail: errors.Wrap(err, "user section").Error()})
	}
	course, err := parsePairs(sections[3], "course_id", "course_name", "category")
	if err != nil {
		return result(num, line, nil, &ParseFailure{Reason: ReasonMalformed, Detail: errors.Wrap(err, "course section").Error()})
	}
	price, err := parsePairs(sections[4], "price", "promo_code")
	if err != nil {
		return result(num, line, nil, &ParseFailure{Reason: ReasonMalformed, Detail: errors.Wrap(err, "price section").Error()})
	}
	ev, f := p.fp.build(rawFields{
		userID:     user["user_id"],
		userName:   user["user_name"],
		userCity:   user["user_city"],
		courseID:   course["course_id"],
		courseName: course["course_name"],
		category:   course["category"],
		timestamp:  strings.TrimSpace(sections[0]),
		price:      price["price"],
		promo:      price["promo_code"],
		finalPrice: price["final_price"],
	})
	return result(num, line, ev, f)
}

// parsePairs splits "k=v;k=v" into a map and checks that every required key
// is present. Values are trimmed; keys may not repeat.
func parsePairs(section string, required ...string) (map[string]string, error) {
	ret := make(map[string]string)
	for _, pair := range strings.Split(strings.TrimSpace(section), ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("'%s' is not a key=value pair", pair)
		}
		k := strings.TrimSpace(kv[0])
		if _, ok := ret[k]; ok {
			return nil, errors.Errorf("key '%s' appears twice", k)
		}
		ret[k] = strings.TrimSpace(kv[1])
	}
	for _, k := range required {
		if _, ok := ret[k]; !ok {
			return nil, errors.Errorf("missing key '%s'", k)
		}
	}
	return ret, nil
}
