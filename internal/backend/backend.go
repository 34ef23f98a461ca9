// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package backend

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"github.com/oroclass/spotctl/internal/backend/file"
	"github.com/oroclass/spotctl/internal/backend/memory"
	"github.com/oroclass/spotctl/internal/backend/s3"
	"github.com/oroclass/spotctl/internal/backend/sqlite"
	"github.com/oroclass/spotctl/internal/cacheutil"
)

// Names lists the accepted values for Settings.Type.
var Names = []string{"file", "s3", "sqlite", "memory"}

// Settings selects and configures a cache store.
type Settings struct {
	Type     string
	Path     string
	Bucket   string
	Key      string
	Region   string
	Profile  string
	Endpoint string
	DSN      string
}

// NewStore builds the cache store described by settings. An empty Type means
// "file".
func NewStore(ctx context.Context, settings Settings) (cacheutil.Store, error) {
	typ := strings.ToLower(settings.Type)
	if typ == "" {
		typ = "file"
	}
	log.Debugf("NewStore: type=%s", typ)

	switch typ {
	case "file":
		return file.New(file.WithPath(settings.Path)), nil
	case "s3":
		store, err := s3.New(ctx, settings.Bucket,
			s3.WithKey(settings.Key),
			s3.WithRegion(settings.Region),
			s3.WithProfile(settings.Profile),
			s3.WithEndpoint(settings.Endpoint),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		dsn := settings.DSN
		if dsn == "" {
			dsn = defaultDSN()
		}
		store, err := sqlite.Open(ctx, dsn, sqlite.WithKey(settings.Key))
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown store type %q (want one of %s)", settings.Type, strings.Join(Names, ", "))
}

// Close releases the store's resources if it holds any.
func Close(store cacheutil.Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func defaultDSN() string {
	if base, ok := cacheutil.Dir(); ok {
		return filepath.Join(base, "spotctl.db")
	}
	return "spotctl.db"
}
