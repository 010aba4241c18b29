package enrollmart

import (
	"time"
)

// registry is an insertion ordered, write-once-per-key map from a natural key
// to a dimension row. It is not safe for concurrent use; each pipeline run
// owns its own registries.
type registry[K comparable, R any] struct {
	idx  map[K]int
	rows []R
}

func newRegistry[K comparable, R any]() *registry[K, R] {
	return &registry[K, R]{
		idx: make(map[K]int),
	}
}

// register stores the row built by mk under key unless key is already
// present, in which case the stored row is left untouched. mk is only called
// for new keys.
func (r *registry[K, R]) register(key K, mk func() R) K {
	if _, ok := r.idx[key]; ok {
		return key
	}
	r.idx[key] = len(r.rows)
	r.rows = append(r.rows, mk())
	return key
}

func (r *registry[K, R]) get(key K) (R, bool) {
	i, ok := r.idx[key]
	if !ok {
		var zero R
		return zero, false
	}
	return r.rows[i], true
}

// Rows returns the rows in first-seen order. The returned slice must not be
// modified.
func (r *registry[K, R]) Rows() []R { return r.rows }

// Len returns the number of distinct keys.
func (r *registry[K, R]) Len() int { return len(r.rows) }

// UserRegistry deduplicates users by user_id. The first name and city seen
// for a user_id win.
type UserRegistry struct {
	*registry[uint64, UserDim]
}

// NewUserRegistry returns an empty UserRegistry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{newRegistry[uint64, UserDim]()}
}

// Register records the event's user and returns its user_id.
func (r *UserRegistry) Register(ev *EnrollmentEvent) uint64 {
	return r.register(ev.UserID, func() UserDim {
		return UserDim{UserID: ev.UserID, UserName: ev.UserName, UserCity: ev.UserCity}
	})
}

// Get returns the stored row for id.
func (r *UserRegistry) Get(id uint64) (UserDim, bool) { return r.get(id) }

// CourseRegistry deduplicates courses by course_id. The first name and
// category seen for a course_id win.
type CourseRegistry struct {
	*registry[string, CourseDim]
}

// NewCourseRegistry returns an empty CourseRegistry.
func NewCourseRegistry() *CourseRegistry {
	return &CourseRegistry{newRegistry[string, CourseDim]()}
}

// Register records the event's course and returns its course_id.
func (r *CourseRegistry) Register(ev *EnrollmentEvent) string {
	return r.register(ev.CourseID, func() CourseDim {
		return CourseDim{CourseID: ev.CourseID, CourseName: ev.CourseName, Category: ev.Category}
	})
}

// Get returns the stored row for id.
func (r *CourseRegistry) Get(id string) (CourseDim, bool) { return r.get(id) }

// TimeRegistry deduplicates event times truncated to the second. Calendar
// fields are decomposed once, when a time is first registered.
type TimeRegistry struct {
	*registry[int64, TimeDim]
}

// NewTimeRegistry returns an empty TimeRegistry.
func NewTimeRegistry() *TimeRegistry {
	return &TimeRegistry{newRegistry[int64, TimeDim]()}
}

// Register records the event's time and returns its time_id.
func (r *TimeRegistry) Register(ev *EnrollmentEvent) time.Time {
	t := ev.EventTime.UTC().Truncate(time.Second)
	r.register(t.Unix(), func() TimeDim { return NewTimeDim(t) })
	return t
}

// Get returns the stored row for the time_id t.
func (r *TimeRegistry) Get(t time.Time) (TimeDim, bool) {
	return r.get(t.UTC().Truncate(time.Second).Unix())
}
