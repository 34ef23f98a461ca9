// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package cacheutil

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

// DefaultFileName is the cache document name used by the file store and as the
// default object key by the remote stores.
const DefaultFileName = "metals_cache.json"

// ErrNotExist is returned by Store.Read when nothing has been written yet.
var ErrNotExist = errors.New("cache entry does not exist")

// Entry is one persisted cache document and the time it was last written.
type Entry struct {
	Data    []byte
	ModTime time.Time
}

// Store persists a single cache document. Implementations must make Write
// atomic with respect to Read: a reader sees either the old or the new bytes.
type Store interface {
	Read(ctx context.Context) (Entry, error)
	Write(ctx context.Context, data []byte) error
	String() string
}

// Dir resolves the base cache directory.
// Precedence:
//  1. SPOTCTL_CACHE_DIR, if set and non-empty
//  2. os.UserCacheDir()/spotctl
//
// Returns ("", false) if a base cannot be resolved.
func Dir() (string, bool) {
	if c, ok := os.LookupEnv("SPOTCTL_CACHE_DIR"); ok && c != "" {
		return c, true
	}
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return filepath.Join(dir, "spotctl"), true
	}
	return "", false
}

// DefaultPath is Dir()/metals_cache.json, or the bare file name in the working
// directory when no cache dir can be resolved.
func DefaultPath() string {
	if base, ok := Dir(); ok {
		return filepath.Join(base, DefaultFileName)
	}
	return DefaultFileName
}

// EnsureBaseDir creates the base cache directory. Returns the path, whether it
// is usable, and an error if creation failed.
func EnsureBaseDir() (string, bool, error) {
	base, ok := Dir()
	if !ok {
		return "", false, nil
	}
	if err := os.MkdirAll(base, 0o755); err != nil { //nolint:mnd
		return base, false, fmt.Errorf("failed to create cache base directory: %w", err)
	}
	return base, true, nil
}

// Age is how long ago the entry was written relative to now. A ModTime in the
// future yields a zero age.
func (e Entry) Age(now time.Time) time.Duration {
	if age := now.Sub(e.ModTime); age > 0 {
		return age
	}
	return 0
}

// Usable reports whether the entry holds a complete quote document: non-empty,
// valid JSON, with both metals present.
func (e Entry) Usable() bool {
	return ValidQuote(e.Data)
}

// ValidQuote reports whether data is a JSON object carrying both the gold and
// silver members.
func ValidQuote(data []byte) bool {
	if len(data) == 0 || !gjson.ValidBytes(data) {
		return false
	}
	res := gjson.GetManyBytes(data, "gold", "silver")
	return res[0].Exists() && res[1].Exists()
}

// WriteAtomic writes data to path through a temp file in the same directory
// and a rename, creating the parent directory if needed. Readers see either
// the previous contents or the new ones, never a mix.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			log.WithError(rmErr).Warnf("failed to remove temp file %s", tmpName)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	log.Debugf("wrote %d bytes to %s", len(data), path)
	return nil
}
