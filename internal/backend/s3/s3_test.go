// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	modified map[string]time.Time
	now      time.Time
	getErr   error
}

func newFakeS3(now time.Time) *fakeS3 {
	return &fakeS3{
		objects:  map[string][]byte{},
		modified: map[string]time.Time{},
		now:      now,
	}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3v2.GetObjectInput, _ ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	k := *in.Bucket + "/" + *in.Key
	data, ok := f.objects[k]
	if !ok {
		return nil, &types.NoSuchKey{Message: awsv2.String("missing")}
	}
	mod := f.modified[k]
	return &s3v2.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader(data)),
		LastModified: &mod,
	}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3v2.PutObjectInput, _ ...func(*s3v2.Options)) (*s3v2.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := *in.Bucket + "/" + *in.Key
	f.objects[k] = data
	f.modified[k] = f.now
	return &s3v2.PutObjectOutput{}, nil
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fake := newFakeS3(now)

	s, err := New(ctx, "spot-cache", WithClient(fake), WithKey("prod/metals.json"))
	require.NoError(t, err)
	assert.Equal(t, "s3://spot-cache/prod/metals.json", s.String())

	_, err = s.Read(ctx)
	assert.ErrorIs(t, err, cacheutil.ErrNotExist)

	require.NoError(t, s.Write(ctx, []byte(`{"gold":{},"silver":{}}`)))
	assert.Contains(t, fake.objects, "spot-cache/prod/metals.json")

	entry, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"gold":{},"silver":{}}`, string(entry.Data))
	assert.Equal(t, now, entry.ModTime)
}

func TestStore_ReadError(t *testing.T) {
	fake := newFakeS3(time.Now())
	fake.getErr = errors.New("access denied")

	s, err := New(context.Background(), "b", WithClient(fake))
	require.NoError(t, err)

	_, err = s.Read(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, cacheutil.ErrNotExist)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), "")
	assert.Error(t, err)
}
