// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

// Store is an in-process cache store. Nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	data    []byte
	modTime time.Time
	written bool
	now     func() time.Time

	// Writes counts successful writes.
	Writes int
	// FailWrites makes every Write return this error.
	FailWrites error
}

type Option func(*Store)

// WithClock sets the clock used to stamp writes.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithEntry seeds the store as if data had been written at modTime.
func WithEntry(data []byte, modTime time.Time) Option {
	return func(s *Store) {
		s.data = append([]byte(nil), data...)
		s.modTime = modTime
		s.written = true
	}
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) String() string {
	return "memory"
}

func (s *Store) Read(_ context.Context) (cacheutil.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.written {
		return cacheutil.Entry{}, cacheutil.ErrNotExist
	}
	return cacheutil.Entry{
		Data:    append([]byte(nil), s.data...),
		ModTime: s.modTime,
	}, nil
}

func (s *Store) Write(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}
	s.data = append([]byte(nil), data...)
	s.modTime = s.now()
	s.written = true
	s.Writes++
	return nil
}

// WriteCount returns Writes under the lock.
func (s *Store) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Writes
}
