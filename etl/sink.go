package etl

import (
	"context"
	"time"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/clickhouse"
	"github.com/pilosa/enrollmart/mysql"
	"github.com/pkg/errors"
)

// Sink types.
const (
	SinkClickHouse = "clickhouse"
	SinkMySQL      = "mysql"
)

// SinkConfig says where rows are loaded.
type SinkConfig struct {
	Type         string        `help:"Store to load into: 'clickhouse' or 'mysql'."`
	BatchSize    int           `help:"Rows per ClickHouse insert batch."`
	CreateTables bool          `help:"Create missing star schema tables before loading."`
	Timeout      time.Duration `help:"Upper bound on the whole load, connecting included."`

	ClickHouse clickhouse.Config
	MySQL      mysql.Config
}

// NewSinkConfig returns defaults for a local ClickHouse.
func NewSinkConfig() SinkConfig {
	return SinkConfig{
		Type:       SinkClickHouse,
		BatchSize:  clickhouse.DefaultBatchSize,
		Timeout:    10 * time.Minute,
		ClickHouse: clickhouse.NewConfig(),
		MySQL:      mysql.NewConfig(),
	}
}

type closingLoader interface {
	enrollmart.Loader
	CreateTables(ctx context.Context) error
	Close() error
}

// open connects to the configured store.
func (c SinkConfig) open(ctx context.Context, log enrollmart.Logger) (closingLoader, error) {
	switch c.Type {
	case SinkClickHouse:
		conn, err := clickhouse.Open(ctx, c.ClickHouse)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to clickhouse")
		}
		return clickhouse.NewLoader(conn, clickhouse.OptLoaderBatchSize(c.BatchSize), clickhouse.OptLoaderLogger(log)), nil
	case SinkMySQL:
		db, err := mysql.Open(ctx, c.MySQL)
		if err != nil {
			return nil, errors.Wrap(err, "connecting to mysql")
		}
		return mysql.NewLoader(db, log), nil
	default:
		return nil, errors.Errorf("unknown sink '%s'", c.Type)
	}
}

// Load writes tables into the configured store.
func (c SinkConfig) Load(tables enrollmart.Tables, log enrollmart.Logger) (enrollmart.LoadCounts, error) {
	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	loader, err := c.open(ctx, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := loader.Close(); err != nil {
			log.Printf("closing %s: %v", c.Type, err)
		}
	}()
	if c.CreateTables {
		if err := loader.CreateTables(ctx); err != nil {
			return nil, errors.Wrap(err, "creating tables")
		}
	}
	return enrollmart.Load(ctx, loader, tables, log)
}
