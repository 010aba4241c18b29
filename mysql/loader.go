// Package mysql loads star schema rows into MySQL. It is meant for small
// deployments without ClickHouse.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
)

// Config holds the connection settings.
type Config struct {
	Host     string        `help:"MySQL host."`
	Port     int           `help:"MySQL port."`
	Database string        `help:"MySQL database."`
	User     string        `help:"MySQL user."`
	Password string        `help:"MySQL password."`
	Timeout  time.Duration `help:"Timeout for establishing a connection."`
}

// NewConfig returns the settings of a local server.
func NewConfig() Config {
	return Config{
		Host:     "localhost",
		Port:     3306,
		Database: "enrollmart",
		User:     "root",
		Timeout:  5 * time.Second,
	}
}

// DSN formats c as a go-sql-driver data source name. Times are read and
// written in UTC.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Timeout = c.Timeout
	return mc.FormatDSN()
}

// Open opens a pool and pings the server.
func Open(ctx context.Context, c Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", c.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "pinging %s:%d", c.Host, c.Port)
	}
	return db, nil
}

// DDL holds the CREATE TABLE statements for the star schema.
var DDL = map[string]string{
	enrollmart.TableUser: `CREATE TABLE IF NOT EXISTS dim_user (
    user_id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
    user_name VARCHAR(255) NOT NULL,
    user_city VARCHAR(255) NOT NULL
)`,
	enrollmart.TableCourse: `CREATE TABLE IF NOT EXISTS dim_course (
    course_id VARCHAR(255) NOT NULL PRIMARY KEY,
    course_name VARCHAR(255) NOT NULL,
    category VARCHAR(255) NOT NULL
)`,
	enrollmart.TableTime: `CREATE TABLE IF NOT EXISTS dim_time (
    time_id DATETIME NOT NULL PRIMARY KEY,
    date DATE NOT NULL,
    year SMALLINT UNSIGNED NOT NULL,
    month TINYINT UNSIGNED NOT NULL,
    day TINYINT UNSIGNED NOT NULL,
    hour TINYINT UNSIGNED NOT NULL
)`,
	enrollmart.TableFact: `CREATE TABLE IF NOT EXISTS fact_enrollment (
    id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
    time_id DATETIME NOT NULL,
    user_id BIGINT UNSIGNED NOT NULL,
    course_id VARCHAR(255) NOT NULL,
    price INT UNSIGNED NOT NULL,
    promo_code VARCHAR(255) NULL,
    final_price INT UNSIGNED NULL,
    KEY fact_time (time_id),
    KEY fact_user (user_id),
    KEY fact_course (course_id)
)`,
}

// Loader is an enrollmart.Loader writing into MySQL. Each table is loaded in
// one transaction through a prepared statement. Dimension rows which already
// exist are updated in place.
type Loader struct {
	db  *sql.DB
	log enrollmart.Logger
}

// NewLoader gets a Loader writing through db.
func NewLoader(db *sql.DB, log enrollmart.Logger) *Loader {
	if log == nil {
		log = enrollmart.NopLogger{}
	}
	return &Loader{db: db, log: log}
}

// Close closes the pool.
func (l *Loader) Close() error {
	return errors.Wrap(l.db.Close(), "closing database")
}

// CreateTables creates any missing table of the star schema.
func (l *Loader) CreateTables(ctx context.Context) error {
	for _, table := range []string{enrollmart.TableUser, enrollmart.TableCourse, enrollmart.TableTime, enrollmart.TableFact} {
		if _, err := l.db.ExecContext(ctx, DDL[table]); err != nil {
			return errors.Wrapf(err, "creating %s", table)
		}
	}
	return nil
}

// insertQuery builds the INSERT statement for table. Columns after the
// first nkey are updated when a row with the same key exists.
func insertQuery(table string, nkey int) string {
	cols := enrollmart.Columns[table]
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), marks)
	if nkey == 0 {
		return q
	}
	updates := make([]string, 0, len(cols)-nkey)
	for _, c := range cols[nkey:] {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", c, c))
	}
	return q + " ON DUPLICATE KEY UPDATE " + strings.Join(updates, ", ")
}

func (l *Loader) exec(ctx context.Context, table string, nkey, n int, args func(i int) []interface{}) (err error) {
	start := time.Now()
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, insertQuery(table, nkey))
	if err != nil {
		return errors.Wrap(err, "preparing insert")
	}
	defer stmt.Close()
	for i := 0; i < n; i++ {
		if _, err = stmt.ExecContext(ctx, args(i)...); err != nil {
			return errors.Wrapf(err, "inserting row %d", i)
		}
		if (i+1)%1000 == 0 {
			l.log.Debugf("inserted %d of %d rows into %s", i+1, n, table)
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing")
	}
	l.log.Debugf("inserted %d rows into %s in %v", n, table, time.Since(start))
	return nil
}

// LoadUsers implements enrollmart.Loader.
func (l *Loader) LoadUsers(ctx context.Context, rows []enrollmart.UserDim) error {
	return l.exec(ctx, enrollmart.TableUser, 1, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{r.UserID, r.UserName, r.UserCity}
	})
}

// LoadCourses implements enrollmart.Loader.
func (l *Loader) LoadCourses(ctx context.Context, rows []enrollmart.CourseDim) error {
	return l.exec(ctx, enrollmart.TableCourse, 1, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{r.CourseID, r.CourseName, r.Category}
	})
}

// LoadTimes implements enrollmart.Loader.
func (l *Loader) LoadTimes(ctx context.Context, rows []enrollmart.TimeDim) error {
	return l.exec(ctx, enrollmart.TableTime, 1, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{r.TimeID, r.Date.Format(enrollmart.DateLayout), r.Year, r.Month, r.Day, r.Hour}
	})
}

// LoadFacts implements enrollmart.Loader. Facts are always inserted, never
// merged.
func (l *Loader) LoadFacts(ctx context.Context, rows []enrollmart.EnrollmentFact) error {
	return l.exec(ctx, enrollmart.TableFact, 0, len(rows), func(i int) []interface{} {
		r := rows[i]
		return []interface{}{r.TimeID, r.UserID, r.CourseID, r.Price, r.PromoCode, r.FinalPrice}
	})
}
