// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

// Store keeps the cache document in a single file. The file's mtime is the
// freshness clock.
type Store struct {
	path string
	perm os.FileMode
}

type Option func(*Store)

// WithPath overrides the default cacheutil.DefaultPath location.
func WithPath(path string) Option {
	return func(s *Store) {
		if path != "" {
			s.path = path
		}
	}
}

// WithPerm sets the permission bits of the written file.
func WithPerm(perm os.FileMode) Option {
	return func(s *Store) { s.perm = perm }
}

func New(opts ...Option) *Store {
	s := &Store{
		path: cacheutil.DefaultPath(),
		perm: 0o644, //nolint:mnd
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) String() string {
	return "file:" + s.path
}

func (s *Store) Read(_ context.Context) (cacheutil.Entry, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cacheutil.Entry{}, cacheutil.ErrNotExist
	}
	if err != nil {
		return cacheutil.Entry{}, fmt.Errorf("failed to stat %s: %w", s.path, err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return cacheutil.Entry{}, cacheutil.ErrNotExist
	}
	if err != nil {
		return cacheutil.Entry{}, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	return cacheutil.Entry{Data: data, ModTime: info.ModTime()}, nil
}

// Write replaces the file through a temp file in the same directory and a
// rename, so concurrent readers never observe a partial document.
func (s *Store) Write(_ context.Context, data []byte) error {
	return cacheutil.WriteAtomic(s.path, data, s.perm)
}
