package enrollmart

import (
	"context"

	"github.com/pkg/errors"
)

// Loader writes typed rows into an analytical store. Implementations are
// expected to batch internally; each call gets the full row set for its
// table.
type Loader interface {
	LoadUsers(ctx context.Context, rows []UserDim) error
	LoadCourses(ctx context.Context, rows []CourseDim) error
	LoadTimes(ctx context.Context, rows []TimeDim) error
	LoadFacts(ctx context.Context, rows []EnrollmentFact) error
}

// LoadCounts reports how many rows of each table were handed to a Loader.
type LoadCounts map[string]int

// Load writes tables through loader. Dimensions go first so that facts never
// reference keys which are not yet stored. Empty tables are skipped.
func Load(ctx context.Context, loader Loader, tables Tables, log Logger) (LoadCounts, error) {
	if log == nil {
		log = NopLogger{}
	}
	counts := make(LoadCounts)
	steps := []struct {
		table string
		n     int
		load  func() error
	}{
		{TableUser, len(tables.Users), func() error { return loader.LoadUsers(ctx, tables.Users) }},
		{TableCourse, len(tables.Courses), func() error { return loader.LoadCourses(ctx, tables.Courses) }},
		{TableTime, len(tables.Times), func() error { return loader.LoadTimes(ctx, tables.Times) }},
		{TableFact, len(tables.Facts), func() error { return loader.LoadFacts(ctx, tables.Facts) }},
	}
	for _, s := range steps {
		if s.n == 0 {
			log.Printf("%s is empty, skipping", s.table)
			continue
		}
		if err := ctx.Err(); err != nil {
			return counts, errors.Wrapf(err, "before loading %s", s.table)
		}
		if err := s.load(); err != nil {
			return counts, errors.Wrapf(err, "loading %s", s.table)
		}
		counts[s.table] = s.n
		log.Printf("loaded %d rows into %s", s.n, s.table)
	}
	return counts, nil
}
