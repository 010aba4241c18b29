package mock

import (
	"context"

	"github.com/pilosa/enrollmart"
)

// Loader is an enrollmart.Loader which keeps rows in memory. If Fail is set
// for a table, loading that table returns it.
type Loader struct {
	Calls   []string
	Users   []enrollmart.UserDim
	Courses []enrollmart.CourseDim
	Times   []enrollmart.TimeDim
	Facts   []enrollmart.EnrollmentFact

	Fail map[string]error
}

func (l *Loader) call(table string) error {
	l.Calls = append(l.Calls, table)
	return l.Fail[table]
}

// LoadUsers implements enrollmart.Loader.
func (l *Loader) LoadUsers(ctx context.Context, rows []enrollmart.UserDim) error {
	if err := l.call(enrollmart.TableUser); err != nil {
		return err
	}
	l.Users = append(l.Users, rows...)
	return nil
}

// LoadCourses implements enrollmart.Loader.
func (l *Loader) LoadCourses(ctx context.Context, rows []enrollmart.CourseDim) error {
	if err := l.call(enrollmart.TableCourse); err != nil {
		return err
	}
	l.Courses = append(l.Courses, rows...)
	return nil
}

// LoadTimes implements enrollmart.Loader.
func (l *Loader) LoadTimes(ctx context.Context, rows []enrollmart.TimeDim) error {
	if err := l.call(enrollmart.TableTime); err != nil {
		return err
	}
	l.Times = append(l.Times, rows...)
	return nil
}

// LoadFacts implements enrollmart.Loader.
func (l *Loader) LoadFacts(ctx context.Context, rows []enrollmart.EnrollmentFact) error {
	if err := l.call(enrollmart.TableFact); err != nil {
		return err
	}
	l.Facts = append(l.Facts, rows...)
	return nil
}
