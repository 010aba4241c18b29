package enrollmart

import (
	"time"
)

// DateLayout is the layout used wherever a calendar date is rendered as text.
const DateLayout = "2006-01-02"

// TimeLayout is the layout used wherever a time_id is rendered as text.
const TimeLayout = "2006-01-02 15:04:05"

// EnrollmentEvent is one successfully parsed log line. It is immutable once
// built.
type EnrollmentEvent struct {
	UserID   uint64
	UserName string
	UserCity string

	CourseID   string
	CourseName string
	Category   string

	// EventTime is always UTC and truncated to the second.
	EventTime time.Time

	Price     uint32
	PromoCode *string

	// FinalPrice is only set when the input line explicitly carries a
	// discounted price. It is never derived from PromoCode.
	FinalPrice *uint32
}

// UserDim is a row of dim_user.
type UserDim struct {
	UserID   uint64
	UserName string
	UserCity string
}

// CourseDim is a row of dim_course.
type CourseDim struct {
	CourseID   string
	CourseName string
	Category   string
}

// TimeDim is a row of dim_time. All calendar fields are computed in UTC from
// TimeID.
type TimeDim struct {
	TimeID time.Time
	Date   time.Time // midnight UTC of TimeID's day
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
}

// NewTimeDim decomposes t (truncated to the second, in UTC) into a TimeDim.
func NewTimeDim(t time.Time) TimeDim {
	t = t.UTC().Truncate(time.Second)
	y, m, d := t.Date()
	return TimeDim{
		TimeID: t,
		Date:   time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Year:   uint16(y),
		Month:  uint8(m),
		Day:    uint8(d),
		Hour:   uint8(t.Hour()),
	}
}

// EnrollmentFact is a row of fact_enrollment.
type EnrollmentFact struct {
	TimeID     time.Time
	UserID     uint64
	CourseID   string
	Price      uint32
	PromoCode  *string
	FinalPrice *uint32

	// Line and Flagged are not part of the table. Line is the source line the
	// fact came from (0 when unknown, e.g. after reading back interchange
	// files) and Flagged marks rows which failed a data quality check.
	Line    int
	Flagged bool
}

// Tables holds the four row sets produced by one transform run.
type Tables struct {
	Users   []UserDim
	Courses []CourseDim
	Times   []TimeDim
	Facts   []EnrollmentFact
}

// Empty reports whether every row set is empty.
func (t *Tables) Empty() bool {
	return len(t.Users) == 0 && len(t.Courses) == 0 && len(t.Times) == 0 && len(t.Facts) == 0
}

// Table names in the analytical store.
const (
	TableUser   = "dim_user"
	TableCourse = "dim_course"
	TableTime   = "dim_time"
	TableFact   = "fact_enrollment"
)

// Columns lists the column names of each table in insertion order.
var Columns = map[string][]string{
	TableUser:   {"user_id", "user_name", "user_city"},
	TableCourse: {"course_id", "course_name", "category"},
	TableTime:   {"time_id", "date", "year", "month", "day", "hour"},
	TableFact:   {"time_id", "user_id", "course_id", "price", "promo_code", "final_price"},
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Uint32Ptr returns a pointer to v.
func Uint32Ptr(v uint32) *uint32 { return &v }
