// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

var (
	// ErrConflict means the file changed since the caller read it.
	ErrConflict = errors.New("catalog modified since it was loaded")
	ErrNotFound = errors.New("item not found")
	ErrInvalid  = errors.New("invalid item")
)

// placeholderHost marks stock images that real uploads replace.
const placeholderHost = "placehold.co"

// Version is the catalog file's modification time in nanoseconds. Zero means
// the file does not exist, or, when passed in, "skip the check".
type Version int64

// ImageRemover deletes an image referenced by its stored relative path.
type ImageRemover interface {
	Remove(rel string) error
}

// Store is the items JSON file. Every mutation is a locked
// read-modify-write ending in an atomic replace.
type Store struct {
	mu     sync.Mutex
	path   string
	images ImageRemover
	now    func() time.Time
}

type Option func(*Store)

// WithImageRemover deletes image files when items or images are removed.
func WithImageRemover(r ImageRemover) Option {
	return func(s *Store) { s.images = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(path string, opts ...Option) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// List returns the items, newest first, and the current version.
func (s *Store) List() ([]Item, Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get returns one item.
func (s *Store) Get(id int64) (Item, Version, error) {
	items, v, err := s.List()
	if err != nil {
		return Item{}, 0, err
	}
	if i := indexOf(items, id); i >= 0 {
		return items[i], v, nil
	}
	return Item{}, v, fmt.Errorf("%w: %d", ErrNotFound, id)
}

// Add prepends a new item. Its id is the current unix time, or one past the
// largest id when that is already taken.
func (s *Store) Add(d Draft, images []string, expected Version) (Item, Version, error) {
	d, err := d.Normalize()
	if err != nil {
		return Item{}, 0, err
	}

	var item Item
	v, err := s.mutate(expected, func(items []Item) ([]Item, error) {
		item = Item{
			ID:          s.nextID(items),
			Title:       d.Title,
			Description: d.Description,
			Price:       d.Price,
			Images:      capImages(images),
			Sold:        false,
		}
		return append([]Item{item}, items...), nil
	})
	if err != nil {
		return Item{}, 0, err
	}

	log.WithField("id", item.ID).WithField("images", len(item.Images)).Info("item added")
	return item, v, nil
}

// Update rewrites an item's text and applies image changes. Deleted images are
// removed from disk after the catalog is saved.
func (s *Store) Update(id int64, d Draft, ch ImageChanges, expected Version) (Change, Version, error) {
	d, err := d.Normalize()
	if err != nil {
		return Change{}, 0, err
	}

	var (
		change  Change
		removed []string
	)
	v, err := s.mutate(expected, func(items []Item) ([]Item, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		change.Before = cloneItem(items[i])

		it := cloneItem(items[i])
		it.Title = d.Title
		it.Price = d.Price
		it.Description = d.Description

		it.Images = it.AllImages()
		it.Image = ""

		if len(ch.Order) > 0 {
			it.Images = nonEmpty(ch.Order)
		}

		for _, del := range ch.Delete {
			if j := indexString(it.Images, del); j >= 0 {
				it.Images = append(it.Images[:j], it.Images[j+1:]...)
				removed = append(removed, del)
			}
		}

		if len(ch.Uploaded) > 0 {
			kept := make([]string, 0, len(it.Images))
			for _, img := range it.Images {
				if !strings.Contains(img, placeholderHost) {
					kept = append(kept, img)
				}
			}
			it.Images = capImages(append(append([]string(nil), ch.Uploaded...), kept...))
		}

		if it.Images == nil {
			it.Images = []string{}
		}
		items[i] = it
		change.After = it
		return items, nil
	})
	if err != nil {
		return Change{}, 0, err
	}

	s.removeImages(removed)
	log.WithField("id", id).Info("item updated")
	return change, v, nil
}

// Delete removes an item and every image it references.
func (s *Store) Delete(id int64, expected Version) (Item, Version, error) {
	var gone Item
	v, err := s.mutate(expected, func(items []Item) ([]Item, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		gone = items[i]
		return append(items[:i], items[i+1:]...), nil
	})
	if err != nil {
		return Item{}, 0, err
	}

	s.removeImages(gone.AllImages())
	log.WithField("id", id).Info("item deleted")
	return gone, v, nil
}

// ToggleSold flips the sold flag and returns the new value.
func (s *Store) ToggleSold(id int64, expected Version) (bool, Version, error) {
	var sold bool
	v, err := s.mutate(expected, func(items []Item) ([]Item, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		items[i].Sold = !items[i].Sold
		sold = items[i].Sold
		return items, nil
	})
	if err != nil {
		return false, 0, err
	}

	log.WithField("id", id).WithField("sold", sold).Info("item sold flag toggled")
	return sold, v, nil
}

// mutate runs fn over the current items under the lock, checks the expected
// version and saves the result.
func (s *Store) mutate(expected Version, fn func([]Item) ([]Item, error)) (Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, current, err := s.load()
	if err != nil {
		return 0, err
	}
	if expected > 0 && current > 0 && expected < current {
		log.WithField("expected", int64(expected)).WithField("current", int64(current)).Warn("catalog version conflict")
		return 0, ErrConflict
	}

	items, err = fn(items)
	if err != nil {
		return 0, err
	}
	return s.save(items)
}

func (s *Store) load() ([]Item, Version, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Item{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat catalog: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read catalog: %w", err)
	}

	items := []Item{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, 0, fmt.Errorf("failed to parse catalog %s: %w", s.path, err)
		}
	}
	return items, Version(info.ModTime().UnixNano()), nil
}

func (s *Store) save(items []Item) (Version, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(items); err != nil {
		return 0, fmt.Errorf("failed to encode catalog: %w", err)
	}

	if err := cacheutil.WriteAtomic(s.path, buf.Bytes(), 0o644); err != nil { //nolint:mnd
		return 0, err
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat catalog: %w", err)
	}
	return Version(info.ModTime().UnixNano()), nil
}

func (s *Store) nextID(items []Item) int64 {
	id := s.now().Unix()
	if indexOf(items, id) < 0 {
		return id
	}
	var maxID int64
	for _, it := range items {
		maxID = max(maxID, it.ID)
	}
	return maxID + 1
}

func (s *Store) removeImages(rels []string) {
	if s.images == nil {
		return
	}
	for _, rel := range rels {
		if err := s.images.Remove(rel); err != nil {
			log.WithError(err).WithField("image", rel).Warn("failed to remove image")
		}
	}
}

func indexOf(items []Item, id int64) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func indexString(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

func capImages(images []string) []string {
	out := nonEmpty(images)
	if len(out) > MaxImages {
		out = out[:MaxImages]
	}
	return out
}

func nonEmpty(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func cloneItem(it Item) Item {
	it.Images = append([]string(nil), it.Images...)
	return it
}
