// Package storage reads and writes documents on the local filesystem or in S3.
// S3 locations use the s3://bucket/key form.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Scheme is the URI prefix for S3 locations.
const S3Scheme = "s3://"

// ErrInvalidLocation is returned for malformed s3:// URIs.
var ErrInvalidLocation = errors.New("invalid storage location")

// Error describes a failed storage operation.
type Error struct {
	Op    string
	URI   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.URI, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Location is a parsed storage URI.
type Location struct {
	Bucket string
	Key    string
	Path   string
}

// IsS3 reports whether the location names an S3 object.
func (l Location) IsS3() bool {
	return l.Bucket != ""
}

// Ext returns the lowercased file extension of the location.
func (l Location) Ext() string {
	if l.IsS3() {
		return strings.ToLower(filepath.Ext(l.Key))
	}
	return strings.ToLower(filepath.Ext(l.Path))
}

// IsS3URI reports whether uri uses the s3:// scheme.
func IsS3URI(uri string) bool {
	return strings.HasPrefix(uri, S3Scheme)
}

// Parse splits a URI into a Location. Anything without the s3:// prefix is a local path.
func Parse(uri string) (Location, error) {
	if !IsS3URI(uri) {
		if strings.TrimSpace(uri) == "" {
			return Location{}, fmt.Errorf("%w: empty path", ErrInvalidLocation)
		}
		return Location{Path: uri}, nil
	}

	rest := strings.TrimPrefix(uri, S3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || strings.Trim(key, "/") == "" {
		return Location{}, fmt.Errorf("%w: %q must look like s3://bucket/key", ErrInvalidLocation, uri)
	}
	return Location{Bucket: bucket, Key: strings.TrimLeft(key, "/")}, nil
}

// ObjectAPI is the subset of the S3 client used by Store.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store reads and writes documents. The S3 client is created on first use.
type Store struct {
	region string
	logger *zap.Logger

	once    sync.Once
	client  ObjectAPI
	initErr error
}

// Option configures a Store.
type Option func(*Store)

// WithRegion sets the AWS region used when the S3 client is created.
func WithRegion(region string) Option {
	return func(s *Store) { s.region = region }
}

// WithS3Client supplies an S3 client instead of loading one from the environment.
func WithS3Client(client ObjectAPI) Option {
	return func(s *Store) {
		s.client = client
		s.once.Do(func() {})
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) s3Client(ctx context.Context) (ObjectAPI, error) {
	s.once.Do(func() {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if s.region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(s.region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			s.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.client, s.initErr
}

// ReadAll returns the full contents of uri.
func (s *Store) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	loc, err := Parse(uri)
	if err != nil {
		return nil, &Error{Op: "read", URI: uri, Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !loc.IsS3() {
		data, err := os.ReadFile(loc.Path)
		if err != nil {
			return nil, &Error{Op: "read", URI: uri, Cause: err}
		}
		return data, nil
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return nil, &Error{Op: "read", URI: uri, Cause: err}
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		return nil, &Error{Op: "read", URI: uri, Cause: err}
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Op: "read", URI: uri, Cause: err}
	}
	s.logger.Debug("read object", zap.String("bucket", loc.Bucket), zap.String("key", loc.Key), zap.Int("bytes", len(data)))
	return data, nil
}

// Write stores data at uri, creating parent directories for local paths.
func (s *Store) Write(ctx context.Context, uri string, data []byte, contentType string) error {
	loc, err := Parse(uri)
	if err != nil {
		return &Error{Op: "write", URI: uri, Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if !loc.IsS3() {
		if dir := filepath.Dir(loc.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return &Error{Op: "write", URI: uri, Cause: err}
			}
		}
		if err := os.WriteFile(loc.Path, data, 0o644); err != nil {
			return &Error{Op: "write", URI: uri, Cause: err}
		}
		return nil
	}

	client, err := s.s3Client(ctx)
	if err != nil {
		return &Error{Op: "write", URI: uri, Cause: err}
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		return &Error{Op: "write", URI: uri, Cause: err}
	}
	s.logger.Debug("wrote object", zap.String("bucket", loc.Bucket), zap.String("key", loc.Key), zap.Int("bytes", len(data)))
	return nil
}
