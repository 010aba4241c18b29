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

// Package s3 reads enrollment logs from objects in an S3 bucket.
package s3

import (
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pilosa/enrollmart"
	"github.com/pkg/errors"
)

// ClientOption is a functional option for NewClient.
type ClientOption func(c *aws.Config)

// OptClientEndpoint points the client at an S3 compatible endpoint (e.g.
// MinIO) using path style addressing.
func OptClientEndpoint(endpoint string) ClientOption {
	return func(c *aws.Config) {
		if endpoint == "" {
			return
		}
		c.Endpoint = aws.String(endpoint)
		c.S3ForcePathStyle = aws.Bool(true)
	}
}

// NewClient gets an S3 client for region. Credentials come from the usual
// AWS environment variables and shared config.
func NewClient(region string, opts ...ClientOption) (s3iface.S3API, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	for _, opt := range opts {
		opt(cfg)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "getting new session")
	}
	return s3.New(sess), nil
}

// RawSource hands out every object under a bucket prefix, ordered by key.
type RawSource struct {
	bucket string
	prefix string

	s3     s3iface.S3API
	keys   []string
	objIdx *uint64
}

// NewRawSource lists the objects under bucket/prefix. "Directory" keys ending
// in a slash are skipped.
func NewRawSource(client s3iface.S3API, bucket, prefix string) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		bucket: bucket,
		prefix: prefix,
		s3:     client,
		objIdx: &idx,
	}
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	err := client.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, last bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			rs.keys = append(rs.keys, key)
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing objects in %s/%s", bucket, prefix)
	}
	sort.Strings(rs.keys)
	return rs, nil
}

// Keys returns the object keys the source will read, in order.
func (rs *RawSource) Keys() []string { return rs.keys }

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

// NextReader implements enrollmart.RawSource.
func (rs *RawSource) NextReader() (enrollmart.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.keys) {
		return nil, io.EOF
	}
	key := rs.keys[idx]

	result, err := rs.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", key)
	}
	return &objReader{name: key, body: result.Body}, nil
}

// NewSource gets a line Source over every object under bucket/prefix.
func NewSource(client s3iface.S3API, bucket, prefix string, opts ...enrollmart.LineSourceOption) (*enrollmart.LineSource, error) {
	rs, err := NewRawSource(client, bucket, prefix)
	if err != nil {
		return nil, errors.Wrap(err, "getting raw s3 source")
	}
	return enrollmart.NewLineSource(rs, opts...), nil
}
