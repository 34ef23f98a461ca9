// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/oroclass/spotctl/internal/cacheutil"
	"github.com/oroclass/spotctl/internal/goldapi"
)

// DefaultWindow is how long a cached document is served without asking
// upstream.
const DefaultWindow = 24 * time.Hour

type Status int

const (
	// Fresh is a cache hit inside the window.
	Fresh Status = iota
	// Refreshed is a document just fetched and written.
	Refreshed
	// Stale is an expired document served because the refresh failed.
	Stale
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Refreshed:
		return "refreshed"
	case Stale:
		return "stale"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is what GetQuote hands back. Body is the exact document bytes as
// stored (Fresh, Stale) or as written (Refreshed).
type Result struct {
	Body    []byte
	Status  Status
	ModTime time.Time
}

// Document decodes Body.
func (r Result) Document() (Document, error) {
	return ParseDocument(r.Body)
}

// Service answers GetQuote from the store, refreshing through the fetcher at
// most once per window.
type Service struct {
	store   cacheutil.Store
	fetcher goldapi.Fetcher
	window  time.Duration
	now     func() time.Time
	loc     *time.Location
	flight  singleflight.Group
}

type Option func(*Service)

// WithWindow sets the freshness window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone updated_human is rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(store cacheutil.Store, fetcher goldapi.Fetcher, opts ...Option) *Service {
	s := &Service{
		store:   store,
		fetcher: fetcher,
		window:  DefaultWindow,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Window() time.Duration {
	return s.window
}

func (s *Service) Store() cacheutil.Store {
	return s.store
}

// GetQuote returns the cached document while it is fresh, otherwise fetches
// both metals and persists the merge. When the refresh fails the last usable
// document is served as Stale; with nothing usable it returns an error
// matching ErrNoCacheAvailable.
func (s *Service) GetQuote(ctx context.Context) (Result, error) {
	if res, ok := s.fresh(ctx); ok {
		log.WithField("store", s.store.String()).Debug("cache hit")
		return res, nil
	}

	// Concurrent misses share one upstream pair. The refresh runs detached
	// from any single caller's cancellation; the per-fetch timeouts bound it.
	v, err, shared := s.flight.Do("refresh", func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	if shared {
		log.Debug("joined in-flight refresh")
	}
	if err != nil {
		return Result{}, err
	}

	res := v.(Result) //nolint:forcetypeassert
	return res, nil
}

// read returns the stored entry when it is usable. Read errors other than
// ErrNotExist are logged and treated as a missing entry.
func (s *Service) read(ctx context.Context) (cacheutil.Entry, bool) {
	entry, err := s.store.Read(ctx)
	if err != nil {
		if !errors.Is(err, cacheutil.ErrNotExist) {
			log.WithError(err).WithField("store", s.store.String()).Warn("cache read failed")
		}
		return cacheutil.Entry{}, false
	}
	if !entry.Usable() {
		log.WithField("store", s.store.String()).WithField("bytes", len(entry.Data)).Warn("ignoring unusable cache entry")
		return cacheutil.Entry{}, false
	}
	return entry, true
}

func (s *Service) fresh(ctx context.Context) (Result, bool) {
	entry, ok := s.read(ctx)
	if !ok || entry.Age(s.now()) >= s.window {
		return Result{}, false
	}
	return Result{Body: entry.Data, Status: Fresh, ModTime: entry.ModTime}, true
}

func (s *Service) refresh(ctx context.Context) (Result, error) {
	// Another flight may have just written a fresh document.
	if res, ok := s.fresh(ctx); ok {
		return res, nil
	}
	prev, havePrev := s.read(ctx)

	gold, silver := s.fetchPair(ctx)

	if gold.err == nil && silver.err == nil {
		return s.persist(ctx, gold.body, silver.body, prev, havePrev)
	}

	cause := pairError(gold, silver)
	log.WithError(cause).Warn("refresh failed")

	if havePrev {
		log.WithField("age", entryAge(prev, s.now())).Warn("serving stale quote")
		return Result{Body: prev.Data, Status: Stale, ModTime: prev.ModTime}, nil
	}

	return Result{}, errors.Join(ErrNoCacheAvailable, cause)
}

type fetchResult struct {
	body json.RawMessage
	err  error
}

// fetchPair fetches both metals in parallel and waits for both outcomes.
func (s *Service) fetchPair(ctx context.Context) (gold, silver fetchResult) {
	var g errgroup.Group
	g.Go(func() error {
		gold.body, gold.err = s.fetcher.Fetch(ctx, goldapi.Gold)
		return nil
	})
	g.Go(func() error {
		silver.body, silver.err = s.fetcher.Fetch(ctx, goldapi.Silver)
		return nil
	})
	_ = g.Wait()

	for _, r := range []struct {
		symbol string
		err    error
	}{{goldapi.Gold, gold.err}, {goldapi.Silver, silver.err}} {
		if r.err == nil {
			continue
		}
		entry := log.WithError(r.err).WithField("symbol", r.symbol)
		var fe *goldapi.FetchError
		if errors.As(r.err, &fe) {
			entry = entry.WithField("kind", fe.Kind.Error())
		}
		entry.Warn("upstream fetch failed")
	}

	return gold, silver
}

func (s *Service) persist(ctx context.Context, gold, silver json.RawMessage, prev cacheutil.Entry, havePrev bool) (Result, error) {
	now := s.now()
	updatedAt := now.Unix()

	// updated_at never moves backwards, even if the clock does.
	if havePrev {
		if prevDoc, err := ParseDocument(prev.Data); err == nil && prevDoc.UpdatedAt > updatedAt {
			updatedAt = prevDoc.UpdatedAt
		}
	}

	body, err := NewDocument(gold, silver, updatedAt, s.loc).Marshal()
	if err != nil {
		return Result{}, errors.Join(ErrNoCacheAvailable, err)
	}

	if err := s.store.Write(ctx, body); err != nil {
		log.WithError(err).WithField("store", s.store.String()).Error("cache write failed")
	} else {
		log.WithField("store", s.store.String()).WithField("updated_at", updatedAt).Info("quote refreshed")
	}

	return Result{Body: body, Status: Refreshed, ModTime: now}, nil
}

func pairError(gold, silver fetchResult) error {
	switch {
	case gold.err != nil && silver.err != nil:
		return errors.Join(gold.err, silver.err)
	case gold.err != nil:
		return errors.Join(ErrPartialSuccess, gold.err)
	default:
		return errors.Join(ErrPartialSuccess, silver.err)
	}
}

func entryAge(e cacheutil.Entry, now time.Time) time.Duration {
	return e.Age(now).Round(time.Second)
}
