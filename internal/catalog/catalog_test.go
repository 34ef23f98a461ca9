// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRemover struct {
	mu      sync.Mutex
	removed []string
}

func (r *recordingRemover) Remove(rel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, rel)
	return nil
}

var t0 = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, *recordingRemover) {
	t.Helper()
	rm := &recordingRemover{}
	now := t0
	s := New(filepath.Join(t.TempDir(), "items.json"),
		WithImageRemover(rm),
		WithClock(func() time.Time { return now }),
	)
	return s, rm
}

func draft(title string) Draft {
	return Draft{Title: title, Price: "14500", Description: "Acciaio, 41mm"}
}

func bump(t *testing.T, s *Store) {
	t.Helper()
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(s.Path(), later, later))
}

func TestList_Missing(t *testing.T) {
	s, _ := newStore(t)

	items, v, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, Version(0), v)
}

func TestAdd(t *testing.T) {
	s, _ := newStore(t)

	first, v1, err := s.Add(draft("Rolex"), []string{"uploads/a.webp"}, 0)
	require.NoError(t, err)
	assert.Equal(t, t0.Unix(), first.ID)
	assert.Positive(t, int64(v1))

	// Same second: the id collides and moves past the maximum.
	second, _, err := s.Add(draft("Omega"), nil, v1)
	require.NoError(t, err)
	assert.Equal(t, t0.Unix()+1, second.ID)
	assert.Equal(t, []string{}, second.Images)

	items, _, err := s.List()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Omega", items[0].Title, "newest first")
	assert.Equal(t, "Rolex", items[1].Title)
	assert.False(t, items[0].Sold)
}

func TestAdd_Invalid(t *testing.T) {
	s, _ := newStore(t)

	for _, d := range []Draft{
		{Title: " ", Price: "1", Description: "x"},
		{Title: "x", Price: "", Description: "x"},
		{Title: "x", Price: "1", Description: "\n"},
	} {
		_, _, err := s.Add(d, nil, 0)
		assert.ErrorIs(t, err, ErrInvalid)
	}

	_, err := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "nothing written")
}

func TestAdd_TrimsAndKeepsRawText(t *testing.T) {
	s, _ := newStore(t)

	it, _, err := s.Add(Draft{Title: "  Cartier <Tank> & co ", Price: " 3.200 ", Description: "Oro giallo 18kt"}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "Cartier <Tank> & co", it.Title)
	assert.Equal(t, "3.200", it.Price)

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Cartier <Tank> & co")
}

func TestAdd_CapsImages(t *testing.T) {
	s, _ := newStore(t)

	it, _, err := s.Add(draft("x"), []string{"1", "2", "3", "4", "5"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, it.Images)
}

func TestConflict(t *testing.T) {
	s, _ := newStore(t)

	it, v1, err := s.Add(draft("Rolex"), nil, 0)
	require.NoError(t, err)

	bump(t, s)

	_, _, err = s.ToggleSold(it.ID, v1)
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = s.Update(it.ID, draft("x"), ImageChanges{}, v1)
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = s.Delete(it.ID, v1)
	assert.ErrorIs(t, err, ErrConflict)
	_, _, err = s.Add(draft("y"), nil, v1)
	assert.ErrorIs(t, err, ErrConflict)

	// Zero skips the check; the current version passes it.
	_, v2, err := s.ToggleSold(it.ID, 0)
	require.NoError(t, err)
	sold, _, err := s.ToggleSold(it.ID, v2)
	require.NoError(t, err)
	assert.False(t, sold)
}

func TestNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, _, err := s.Add(draft("x"), nil, 0)
	require.NoError(t, err)

	_, _, err = s.Update(42, draft("x"), ImageChanges{}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Delete(42, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.ToggleSold(42, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleSold(t *testing.T) {
	s, _ := newStore(t)
	it, _, err := s.Add(draft("x"), nil, 0)
	require.NoError(t, err)

	sold, _, err := s.ToggleSold(it.ID, 0)
	require.NoError(t, err)
	assert.True(t, sold)

	got, _, err := s.Get(it.ID)
	require.NoError(t, err)
	assert.True(t, got.Sold)
}

func TestUpdate_Images(t *testing.T) {
	tests := []struct {
		name        string
		initial     []string
		legacy      string
		changes     ImageChanges
		want        []string
		wantRemoved []string
	}{
		{
			name:    "text only keeps images",
			initial: []string{"uploads/a", "uploads/b"},
			want:    []string{"uploads/a", "uploads/b"},
		},
		{
			name:    "order replaces list",
			initial: []string{"uploads/a", "uploads/b"},
			changes: ImageChanges{Order: []string{"uploads/b", "uploads/a"}},
			want:    []string{"uploads/b", "uploads/a"},
		},
		{
			name:        "delete removes entry and file",
			initial:     []string{"uploads/a", "uploads/b"},
			changes:     ImageChanges{Delete: []string{"uploads/a", "uploads/zzz"}},
			want:        []string{"uploads/b"},
			wantRemoved: []string{"uploads/a"},
		},
		{
			name:    "uploads are prepended and capped",
			initial: []string{"uploads/a", "uploads/b", "uploads/c"},
			changes: ImageChanges{Uploaded: []string{"uploads/n1", "uploads/n2"}},
			want:    []string{"uploads/n1", "uploads/n2", "uploads/a", "uploads/b"},
		},
		{
			name:    "uploads drop placeholders",
			initial: []string{"https://placehold.co/600x400", "uploads/a"},
			changes: ImageChanges{Uploaded: []string{"uploads/n1"}},
			want:    []string{"uploads/n1", "uploads/a"},
		},
		{
			name:    "placeholders survive without uploads",
			initial: []string{"https://placehold.co/600x400"},
			want:    []string{"https://placehold.co/600x400"},
		},
		{
			name:    "legacy image is folded in",
			initial: []string{"uploads/a"},
			legacy:  "uploads/old.jpg",
			want:    []string{"uploads/a", "uploads/old.jpg"},
		},
		{
			name:        "order then delete then upload",
			initial:     []string{"uploads/a", "uploads/b", "uploads/c"},
			changes:     ImageChanges{Order: []string{"uploads/c", "uploads/b", "uploads/a"}, Delete: []string{"uploads/b"}, Uploaded: []string{"uploads/n"}},
			want:        []string{"uploads/n", "uploads/c", "uploads/a"},
			wantRemoved: []string{"uploads/b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rm := newStore(t)
			it, _, err := s.Add(draft("Rolex"), tt.initial, 0)
			require.NoError(t, err)

			if tt.legacy != "" {
				items, _, err := s.List()
				require.NoError(t, err)
				items[0].Image = tt.legacy
				_, err = s.save(items)
				require.NoError(t, err)
			}

			change, _, err := s.Update(it.ID, Draft{Title: "Rolex Submariner", Price: "9000", Description: "2019"}, tt.changes, 0)
			require.NoError(t, err)
			assert.Equal(t, "Rolex", change.Before.Title)
			assert.Equal(t, "Rolex Submariner", change.After.Title)
			assert.Equal(t, tt.want, change.After.Images)
			assert.Empty(t, change.After.Image)
			assert.Equal(t, tt.wantRemoved, rm.removed)

			stored, _, err := s.Get(it.ID)
			require.NoError(t, err)
			assert.Equal(t, change.After, stored)
		})
	}
}

func TestDelete_RemovesAllImages(t *testing.T) {
	s, rm := newStore(t)
	it, _, err := s.Add(draft("x"), []string{"uploads/a", "uploads/b"}, 0)
	require.NoError(t, err)

	items, _, _ := s.List()
	items[0].Image = "uploads/legacy.jpg"
	_, err = s.save(items)
	require.NoError(t, err)

	gone, _, err := s.Delete(it.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, it.ID, gone.ID)
	assert.Equal(t, []string{"uploads/a", "uploads/b", "uploads/legacy.jpg"}, rm.removed)

	items, _, err = s.List()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLoad_Corrupt(t *testing.T) {
	s, _ := newStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte(`[{"id":`), 0o600))

	_, _, err := s.List()
	assert.Error(t, err)

	_, _, err = s.Add(draft("x"), nil, 0)
	assert.Error(t, err, "a corrupt catalog is never overwritten")
}

func TestConcurrentToggles(t *testing.T) {
	s, _ := newStore(t)
	it, _, err := s.Add(draft("x"), nil, 0)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.ToggleSold(it.ID, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _, err := s.Get(it.ID)
	require.NoError(t, err)
	assert.False(t, got.Sold, "an even number of toggles leaves the flag unchanged")
}
