// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package upload

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"

	"github.com/oroclass/spotctl/internal/cacheutil"
)

const (
	// MaxFiles is the most images one request may carry.
	MaxFiles = 4
	// DefaultMaxBytes caps a single image.
	DefaultMaxBytes int64 = 10 << 20
	// URLPrefix is prepended to stored names in catalog references.
	URLPrefix = "uploads/"
)

var (
	ErrTooMany         = fmt.Errorf("too many images (max %d)", MaxFiles)
	ErrTooLarge        = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported image type (use JPG, PNG or WebP)")
)

var extensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// Mode selects what happens when more than MaxFiles images arrive.
type Mode int

const (
	// Strict rejects the whole batch with ErrTooMany.
	Strict Mode = iota
	// Truncate keeps the first MaxFiles and ignores the rest.
	Truncate
)

// Source is one incoming image.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FromMultipart adapts form file headers.
func FromMultipart(headers []*multipart.FileHeader) []Source {
	out := make([]Source, 0, len(headers))
	for _, h := range headers {
		out = append(out, Source{
			Name: h.Filename,
			Open: func() (io.ReadCloser, error) { return h.Open() },
		})
	}
	return out
}

// FromPaths adapts local files.
func FromPaths(paths []string) []Source {
	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, Source{
			Name: filepath.Base(p),
			Open: func() (io.ReadCloser, error) { return os.Open(p) },
		})
	}
	return out
}

// Store validates and persists images in one directory.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
	random   io.Reader
}

type Option func(*Store)

// WithMaxBytes sets the per-file cap. Non-positive keeps the default.
func WithMaxBytes(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:      dir,
		maxBytes: DefaultMaxBytes,
		now:      time.Now,
		random:   rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Dir() string {
	return s.dir
}

// MaxBytes is the per-file cap.
func (s *Store) MaxBytes() int64 {
	return s.maxBytes
}

type accepted struct {
	data []byte
	ext  string
}

// Save validates every source and only then writes them, returning catalog
// references ("uploads/<name>") in input order. Nothing is written when any
// source fails validation.
func (s *Store) Save(sources []Source, mode Mode) ([]string, error) {
	if len(sources) > MaxFiles {
		if mode == Strict {
			return nil, ErrTooMany
		}
		log.WithField("received", len(sources)).Warnf("keeping the first %d images", MaxFiles)
		sources = sources[:MaxFiles]
	}

	files := make([]accepted, 0, len(sources))
	for _, src := range sources {
		a, err := s.check(src)
		if err != nil {
			return nil, err
		}
		files = append(files, a)
	}

	stamp := s.now().Unix()
	refs := make([]string, 0, len(files))
	for i, f := range files {
		suffix := make([]byte, 3) //nolint:mnd
		if _, err := io.ReadFull(s.random, suffix); err != nil {
			s.rollback(refs)
			return nil, fmt.Errorf("failed to generate name: %w", err)
		}
		name := fmt.Sprintf("img_%d_%d_%s.%s", stamp, i, hex.EncodeToString(suffix), f.ext)

		if err := cacheutil.WriteAtomic(filepath.Join(s.dir, name), f.data, 0o644); err != nil { //nolint:mnd
			s.rollback(refs)
			return nil, err
		}
		refs = append(refs, URLPrefix+name)
		log.WithField("name", name).WithField("size", humanize.Bytes(uint64(len(f.data)))).Debug("image stored")
	}

	return refs, nil
}

func (s *Store) check(src Source) (accepted, error) {
	rc, err := src.Open()
	if err != nil {
		return accepted{}, fmt.Errorf("failed to open %s: %w", src.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, s.maxBytes+1))
	if err != nil {
		return accepted{}, fmt.Errorf("failed to read %s: %w", src.Name, err)
	}
	if int64(len(data)) > s.maxBytes {
		return accepted{}, fmt.Errorf("%w: %s exceeds %s", ErrTooLarge, src.Name, humanize.Bytes(uint64(s.maxBytes)))
	}

	mime := http.DetectContentType(data)
	ext, ok := extensions[mime]
	if !ok {
		return accepted{}, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, src.Name, mime)
	}
	return accepted{data: data, ext: ext}, nil
}

func (s *Store) rollback(refs []string) {
	for _, ref := range refs {
		if err := s.Remove(ref); err != nil {
			log.WithError(err).WithField("image", ref).Warn("failed to roll back image")
		}
	}
}

// Remove deletes a stored image given its catalog reference. References that
// do not name a plain file inside the uploads dir (remote URLs, traversal
// attempts) are ignored. A missing file is not an error.
func (s *Store) Remove(ref string) error {
	name, ok := s.localName(ref)
	if !ok {
		log.WithField("image", ref).Debug("not a local upload, skipping removal")
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}

func (s *Store) localName(ref string) (string, bool) {
	if strings.Contains(ref, "://") {
		return "", false
	}
	name := strings.TrimPrefix(ref, URLPrefix)
	if name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", false
	}
	return name, true
}
