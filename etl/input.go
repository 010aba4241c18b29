// Package etl holds the configuration and entry points of the enrollmart
// commands. Each command is a Main struct whose fields become flags.
package etl

import (
	"io"
	"io/ioutil"

	"github.com/pilosa/enrollmart"
	"github.com/pilosa/enrollmart/aws/s3"
	"github.com/pilosa/enrollmart/file"
	"github.com/pkg/errors"
)

// StdinPath is the Path which reads the log from stdin.
const StdinPath = "-"

// InputConfig says where log lines come from and how to parse them. When
// S3Bucket is set, Path is ignored.
type InputConfig struct {
	Path        string   `help:"File or directory to read logs from. '-' reads stdin."`
	S3Bucket    string   `help:"S3 bucket to read log objects from."`
	S3Prefix    string   `help:"Only objects whose key has this prefix are read."`
	S3Region    string   `help:"AWS region of the bucket."`
	S3Endpoint  string   `help:"Custom S3 endpoint, e.g. a MinIO server."`
	Format      string   `help:"Line format: 'delimited' or 'kv'."`
	Delimiter   string   `help:"Field delimiter of the delimited format."`
	NullMarker  string   `help:"Literal which marks an absent promo code or final price."`
	TimeLayouts []string `help:"Go time layouts accepted for event timestamps, tried in order."`
	MaxLineSize int      `help:"Longest accepted line in bytes."`
}

// NewInputConfig returns the defaults: delimited lines from stdin.
func NewInputConfig() InputConfig {
	pc := enrollmart.NewParserConfig()
	return InputConfig{
		Path:        StdinPath,
		S3Region:    "us-east-1",
		Format:      pc.Format,
		Delimiter:   pc.Delimiter,
		NullMarker:  pc.NullMarker,
		TimeLayouts: append([]string(nil), pc.TimeLayouts...),
		MaxLineSize: enrollmart.DefaultMaxLineSize,
	}
}

// Name describes the input for logs and the run journal.
func (c InputConfig) Name() string {
	if c.S3Bucket != "" {
		return "s3://" + c.S3Bucket + "/" + c.S3Prefix
	}
	return c.Path
}

// Parser builds the LineParser for the configured format.
func (c InputConfig) Parser() (enrollmart.LineParser, error) {
	p, err := enrollmart.NewLineParser(enrollmart.ParserConfig{
		Format:      c.Format,
		Delimiter:   c.Delimiter,
		NullMarker:  c.NullMarker,
		TimeLayouts: c.TimeLayouts,
	})
	return p, errors.Wrap(err, "getting line parser")
}

// Source opens the configured input. stdin is used when Path is StdinPath.
func (c InputConfig) Source(stdin io.Reader) (*enrollmart.LineSource, error) {
	opt := enrollmart.OptLineSourceMaxLineSize(c.MaxLineSize)
	switch {
	case c.S3Bucket != "":
		client, err := s3.NewClient(c.S3Region, s3.OptClientEndpoint(c.S3Endpoint))
		if err != nil {
			return nil, errors.Wrap(err, "getting s3 client")
		}
		src, err := s3.NewSource(client, c.S3Bucket, c.S3Prefix, opt)
		return src, errors.Wrap(err, "getting s3 source")
	case c.Path == StdinPath || c.Path == "":
		if stdin == nil {
			return nil, errors.New("no stdin to read from")
		}
		return enrollmart.NewLineSource(enrollmart.NewReaderSource("stdin", ioutil.NopCloser(stdin)), opt), nil
	default:
		src, err := file.NewSource(c.Path, opt)
		return src, errors.Wrap(err, "getting file source")
	}
}
