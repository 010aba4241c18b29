// Package clickhouse loads star schema rows into ClickHouse over the native
// protocol.
package clickhouse

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
)

// Conn is the part of a ClickHouse connection the Loader uses.
// clickhouse.Conn satisfies it.
type Conn interface {
	PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
	Exec(ctx context.Context, query string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// Config holds the connection settings.
type Config struct {
	Host        string        `help:"ClickHouse host."`
	Port        int           `help:"ClickHouse native protocol port."`
	Database    string        `help:"ClickHouse database."`
	Username    string        `help:"ClickHouse user."`
	Password    string        `help:"ClickHouse password."`
	DialTimeout time.Duration `help:"Timeout for establishing a connection."`
	Compress    bool          `help:"Compress blocks with LZ4."`
}

// NewConfig returns the settings of a local server with default credentials.
func NewConfig() Config {
	return Config{
		Host:        "localhost",
		Port:        9000,
		Database:    "default",
		Username:    "default",
		DialTimeout: 5 * time.Second,
		Compress:    true,
	}
}

// Options converts c into driver options.
func (c Config) Options() *clickhouse.Options {
	opts := &clickhouse.Options{
		Addr: []string{net.JoinHostPort(c.Host, strconv.Itoa(c.Port))},
		Auth: clickhouse.Auth{
			Database: c.Database,
			Username: c.Username,
			Password: c.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "enrollmart", Version: "1.0.0"}},
		},
		DialTimeout: c.DialTimeout,
	}
	if c.Compress {
		opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}
	return opts
}

// Open connects to ClickHouse and checks the connection with a ping.
func Open(ctx context.Context, c Config) (Conn, error) {
	conn, err := clickhouse.Open(c.Options())
	if err != nil {
		return nil, errors.Wrap(err, "opening connection")
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "pinging %s:%d", c.Host, c.Port)
	}
	return conn, nil
}

// DefaultBatchSize is the number of rows sent per batch by default.
const DefaultBatchSize = 10000

// Loader is an enrollmart.Loader writing into ClickHouse. Each table is sent
// in batches of at most BatchSize rows.
type Loader struct {
	conn      Conn
	batchSize int
	log       enrollmart.Logger
}

// LoaderOption is a functional option for Loader.
type LoaderOption func(l *Loader)

// OptLoaderBatchSize sets the number of rows per batch.
func OptLoaderBatchSize(n int) LoaderOption {
	return func(l *Loader) {
		if n > 0 {
			l.batchSize = n
		}
	}
}

// OptLoaderLogger sets the logger.
func OptLoaderLogger(log enrollmart.Logger) LoaderOption {
	return func(l *Loader) {
		l.log = log
	}
}

// NewLoader gets a Loader writing through conn.
func NewLoader(conn Conn, opts ...LoaderOption) *Loader {
	l := &Loader{
		conn:      conn,
		batchSize: DefaultBatchSize,
		log:       enrollmart.NopLogger{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Close closes the underlying connection.
func (l *Loader) Close() error {
	return errors.Wrap(l.conn.Close(), "closing connection")
}

// DDL holds the CREATE TABLE statements for the star schema. Dimensions use
// ReplacingMergeTree so that reloading the same rows converges on one row per
// key.
var DDL = map[string]string{
	enrollmart.TableUser: `CREATE TABLE IF NOT EXISTS dim_user (
    user_id UInt64,
    user_name String,
    user_city String
) ENGINE = ReplacingMergeTree ORDER BY user_id`,
	enrollmart.TableCourse: `CREATE TABLE IF NOT EXISTS dim_course (
    course_id String,
    course_name String,
    category String
) ENGINE = ReplacingMergeTree ORDER BY course_id`,
	enrollmart.TableTime: `CREATE TABLE IF NOT EXISTS dim_time (
    time_id DateTime('UTC'),
    date Date,
    year UInt16,
    month UInt8,
    day UInt8,
    hour UInt8
) ENGINE = ReplacingMergeTree ORDER BY time_id`,
	enrollmart.TableFact: `CREATE TABLE IF NOT EXISTS fact_enrollment (
    time_id DateTime('UTC'),
    user_id UInt64,
    course_id String,
    price UInt32,
    promo_code Nullable(String),
    final_price Nullable(UInt32)
) ENGINE = MergeTree ORDER BY (time_id, user_id, course_id)`,
}

// CreateTables creates any missing table of the star schema.
func (l *Loader) CreateTables(ctx context.Context) error {
	for _, table := range []string{enrollmart.TableUser, enrollmart.TableCourse, enrollmart.TableTime, enrollmart.TableFact} {
		if err := l.conn.Exec(ctx, DDL[table]); err != nil {
			return errors.Wrapf(err, "creating %s", table)
		}
	}
	return nil
}

func insertQuery(table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(enrollmart.Columns[table], ", "))
}

// send inserts n rows into table, batchSize rows at a time. row appends the
// i'th row to a batch.
func (l *Loader) send(ctx context.Context, table string, n int, row func(b driver.Batch, i int) error) error {
	query := insertQuery(table)
	for start := 0; start < n; start += l.batchSize {
		end := start + l.batchSize
		if end > n {
			end = n
		}
		batch, err := l.conn.PrepareBatch(ctx, query)
		if err != nil {
			return errors.Wrapf(err, "preparing batch for %s", table)
		}
		for i := start; i < end; i++ {
			if err := row(batch, i); err != nil {
				_ = batch.Abort()
				return errors.Wrapf(err, "appending row %d to %s", i, table)
			}
		}
		if err := batch.Send(); err != nil {
			return errors.Wrapf(err, "sending rows %d-%d of %s", start, end-1, table)
		}
		l.log.Debugf("sent rows %d-%d of %s", start, end-1, table)
	}
	return nil
}

// LoadUsers implements enrollmart.Loader.
func (l *Loader) LoadUsers(ctx context.Context, rows []enrollmart.UserDim) error {
	return l.send(ctx, enrollmart.TableUser, len(rows), func(b driver.Batch, i int) error {
		r := rows[i]
		return b.Append(r.UserID, r.UserName, r.UserCity)
	})
}

// LoadCourses implements enrollmart.Loader.
func (l *Loader) LoadCourses(ctx context.Context, rows []enrollmart.CourseDim) error {
	return l.send(ctx, enrollmart.TableCourse, len(rows), func(b driver.Batch, i int) error {
		r := rows[i]
		return b.Append(r.CourseID, r.CourseName, r.Category)
	})
}

// LoadTimes implements enrollmart.Loader.
func (l *Loader) LoadTimes(ctx context.Context, rows []enrollmart.TimeDim) error {
	return l.send(ctx, enrollmart.TableTime, len(rows), func(b driver.Batch, i int) error {
		r := rows[i]
		return b.Append(r.TimeID, r.Date, r.Year, r.Month, r.Day, r.Hour)
	})
}

// LoadFacts implements enrollmart.Loader. Absent promo codes and final
// prices are sent as NULL.
func (l *Loader) LoadFacts(ctx context.Context, rows []enrollmart.EnrollmentFact) error {
	return l.send(ctx, enrollmart.TableFact, len(rows), func(b driver.Batch, i int) error {
		r := rows[i]
		return b.Append(r.TimeID, r.UserID, r.CourseID, r.Price, r.PromoCode, r.FinalPrice)
	})
}
