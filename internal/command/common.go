// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"

	"github.com/oroclass/spotctl/internal/backend"
	"github.com/oroclass/spotctl/internal/cacheutil"
	"github.com/oroclass/spotctl/internal/catalog"
	"github.com/oroclass/spotctl/internal/goldapi"
	"github.com/oroclass/spotctl/internal/meta"
	"github.com/oroclass/spotctl/internal/output"
	"github.com/oroclass/spotctl/internal/pricing"
	"github.com/oroclass/spotctl/internal/quote"
	"github.com/oroclass/spotctl/internal/upload"
)

// ShortCircuitTLDR checks the --tldr flag and, if present and available,
// runs `tldr spotctl <subcmd>` and returns true so the caller can exit early.
func ShortCircuitTLDR(ctx context.Context, cmd *cli.Command, subcmd string) bool {
	if cmd.Bool("tldr") {
		if _, err := exec.LookPath("tldr"); err == nil {
			c := exec.CommandContext(ctx, "tldr", "spotctl", subcmd)
			c.Stdout = os.Stdout
			c.Stderr = os.Stderr
			_ = c.Run()
		}
		return true
	}
	return false
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}

// stdout is where command results go. Tests swap the root writer.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// OutputOptions collects the rendering flags.
func OutputOptions(cmd *cli.Command) output.Options {
	return output.Options{
		Format: cmd.String("output"),
		Titles: cmd.Bool("titles"),
		Color:  cmd.Bool("color"),
		Sort:   cmd.String("sort"),
	}
}

// resolvePath anchors relative paths at the directory spotctl started in.
func resolvePath(cmd *cli.Command, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if sd := GetMeta(cmd).StartingDir; sd != "" {
		return filepath.Join(sd, p)
	}
	return p
}

// OpenStore builds the quote cache store from the store flags. Callers close
// it with backend.Close.
func OpenStore(ctx context.Context, cmd *cli.Command) (cacheutil.Store, error) {
	settings := backend.Settings{
		Type:     cmd.String("store"),
		Path:     resolvePath(cmd, cmd.String("cache-path")),
		Bucket:   cmd.String("bucket"),
		Key:      cmd.String("key"),
		Region:   cmd.String("region"),
		Profile:  cmd.String("profile"),
		Endpoint: cmd.String("endpoint"),
		DSN:      resolvePath(cmd, cmd.String("dsn")),
	}

	if settings.Type == "file" || settings.Type == "" {
		if dir := filepath.Dir(settings.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
				return nil, fmt.Errorf("failed to create cache dir: %w", err)
			}
		}
	}

	store, err := backend.NewStore(ctx, settings)
	if err != nil {
		return nil, err
	}
	log.Debugf("store: %s", store)
	return store, nil
}

// NewQuoteService wires the upstream client and the store into a Service.
func NewQuoteService(cmd *cli.Command, store cacheutil.Store) *quote.Service {
	token := cmd.String("token")
	if token == "" {
		log.Warn("no price API token configured, upstream requests will be rejected")
	}

	client := goldapi.New(token,
		goldapi.WithBaseURL(cmd.String("base-url")),
		goldapi.WithCurrency(cmd.String("currency")),
		goldapi.WithTimeout(time.Duration(cmd.Int("timeout"))*time.Second),
	)

	return quote.NewService(store, client,
		quote.WithWindow(time.Duration(cmd.Int("freshness"))*time.Second),
	)
}

// NewCalculator reads --spread and --payout.
func NewCalculator(cmd *cli.Command) (pricing.Calculator, error) {
	spread, err := decimal.NewFromString(cmd.String("spread"))
	if err != nil {
		return pricing.Calculator{}, fmt.Errorf("invalid spread: %w", err)
	}
	payout, err := decimal.NewFromString(cmd.String("payout"))
	if err != nil {
		return pricing.Calculator{}, fmt.Errorf("invalid payout: %w", err)
	}
	return pricing.Calculator{Spread: spread, Payout: payout}, nil
}

// OpenCatalog returns the items store and the upload store it removes images
// through.
func OpenCatalog(cmd *cli.Command) (*catalog.Store, *upload.Store) {
	up := upload.New(resolvePath(cmd, cmd.String("uploads")),
		upload.WithMaxBytes(int64(cmd.Int("max-image-bytes"))),
	)
	cat := catalog.New(resolvePath(cmd, cmd.String("items")), catalog.WithImageRemover(up))
	log.Debugf("catalog: %s uploads: %s", cat.Path(), up.Dir())
	return cat, up
}
