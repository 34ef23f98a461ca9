// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroclass/spotctl/internal/backend/file"
	"github.com/oroclass/spotctl/internal/backend/memory"
	"github.com/oroclass/spotctl/internal/backend/sqlite"
)

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	t.Setenv("SPOTCTL_CACHE_DIR", dir)

	tests := []struct {
		name     string
		settings Settings
		check    func(*testing.T, any)
		wantErr  string
	}{
		{
			name:     "default is file",
			settings: Settings{},
			check: func(t *testing.T, s any) {
				fs, ok := s.(*file.Store)
				require.True(t, ok)
				assert.Equal(t, filepath.Join(dir, "metals_cache.json"), fs.Path())
			},
		},
		{
			name:     "file with path",
			settings: Settings{Type: "FILE", Path: filepath.Join(dir, "x.json")},
			check: func(t *testing.T, s any) {
				assert.Equal(t, "file:"+filepath.Join(dir, "x.json"), s.(*file.Store).String())
			},
		},
		{
			name:     "memory",
			settings: Settings{Type: "memory"},
			check: func(t *testing.T, s any) {
				_, ok := s.(*memory.Store)
				assert.True(t, ok)
			},
		},
		{
			name:     "sqlite default dsn",
			settings: Settings{Type: "sqlite"},
			check: func(t *testing.T, s any) {
				_, ok := s.(*sqlite.Store)
				assert.True(t, ok)
				assert.FileExists(t, filepath.Join(dir, "spotctl.db"))
			},
		},
		{
			name:     "s3 without bucket",
			settings: Settings{Type: "s3"},
			wantErr:  "requires a bucket",
		},
		{
			name:     "unknown",
			settings: Settings{Type: "redis"},
			wantErr:  "unknown store type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(ctx, tt.settings)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, Close(store)) }()
			tt.check(t, store)
		})
	}
}
