// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	awsx "github.com/oroclass/spotctl/internal/aws"
	"github.com/oroclass/spotctl/internal/cacheutil"
)

// API is the subset of the S3 client the store needs.
type API interface {
	GetObject(ctx context.Context, in *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3v2.PutObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error)
}

// Store keeps the cache document as one S3 object. LastModified is the
// freshness clock.
type Store struct {
	client API
	bucket string
	key    string
}

type config struct {
	key      string
	region   string
	profile  string
	endpoint string
	client   API
}

type Option func(*config)

func WithKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.key = key
		}
	}
}

func WithRegion(region string) Option {
	return func(c *config) { c.region = region }
}

func WithProfile(profile string) Option {
	return func(c *config) { c.profile = profile }
}

// WithEndpoint points the client at an S3-compatible service (MinIO, R2...).
// Path-style addressing is enabled alongside it.
func WithEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithClient bypasses AWS config loading entirely.
func WithClient(client API) Option {
	return func(c *config) { c.client = client }
}

func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	if bucket == "" {
		return nil, errors.New("s3 store requires a bucket")
	}

	cfg := config{key: cacheutil.DefaultFileName}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := cfg.client
	if client == nil {
		var awsOpts []awsx.Option
		if cfg.profile != "" {
			awsOpts = append(awsOpts, awsx.WithProfile(cfg.profile))
		}
		if cfg.region != "" {
			awsOpts = append(awsOpts, awsx.WithRegion(cfg.region))
		}

		awsCfg, err := awsx.LoadAWSConfig(ctx, awsOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}

		var s3Opts []func(*s3v2.Options)
		if cfg.endpoint != "" {
			s3Opts = append(s3Opts, awsx.WithS3BaseEndpoint(cfg.endpoint))
		}
		client = awsx.NewS3(awsCfg, s3Opts...)
	}

	return &Store{client: client, bucket: bucket, key: cfg.key}, nil
}

func (s *Store) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

func (s *Store) Read(ctx context.Context) (cacheutil.Entry, error) {
	out, err := s.client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(s.bucket),
		Key:    awsv2.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return cacheutil.Entry{}, cacheutil.ErrNotExist
		}
		return cacheutil.Entry{}, fmt.Errorf("failed to get %s: %w", s, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return cacheutil.Entry{}, fmt.Errorf("failed to read %s: %w", s, err)
	}

	var mod time.Time
	if out.LastModified != nil {
		mod = *out.LastModified
	}
	log.Debugf("s3 read %s bytes=%d modified=%s", s, len(data), mod)

	return cacheutil.Entry{Data: data, ModTime: mod}, nil
}

// Write uploads the whole document with one PutObject; S3 never exposes a
// partially written object.
func (s *Store) Write(ctx context.Context, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3v2.PutObjectInput{
		Bucket:      awsv2.String(s.bucket),
		Key:         awsv2.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: awsv2.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", s, err)
	}
	return nil
}
