// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/oroclass/spotctl/internal/backend"
	"github.com/oroclass/spotctl/internal/meta"
	"github.com/oroclass/spotctl/internal/server"
)

// ServeCommandAction runs the HTTP server until SIGINT or SIGTERM.
func ServeCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "serve") {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(store); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}()

	calc, err := NewCalculator(cmd)
	if err != nil {
		return err
	}

	cat, up := OpenCatalog(cmd)
	if err := os.MkdirAll(up.Dir(), 0o755); err != nil { //nolint:mnd
		return fmt.Errorf("failed to create uploads dir: %w", err)
	}

	srv := server.New(server.Config{
		Addr:            cmd.String("addr"),
		CORSOrigin:      cmd.String("cors-origin"),
		AdminEmail:      cmd.String("admin-email"),
		AdminHash:       []byte(cmd.String("admin-hash")),
		ShutdownTimeout: time.Duration(cmd.Int("shutdown-timeout")) * time.Second,
	}, NewQuoteService(cmd, store), cat, up, calc)

	log.WithFields(log.Fields{
		"store":   store.String(),
		"catalog": cat.Path(),
		"uploads": up.Dir(),
	}).Info("starting server")
	return srv.ListenAndServe(ctx)
}

// ServeCommandBuilder constructs the cli.Command definition for "serve".
func ServeCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	flags := []cli.Flag{
		tldrFlag,
		&cli.StringFlag{
			Name:    "addr",
			Usage:   "listen address",
			Sources: sources(src, "serve", "addr", "SPOTCTL_ADDR"),
			Value:   server.DefaultAddr,
		},
		&cli.StringFlag{
			Name:    "cors-origin",
			Usage:   "Access-Control-Allow-Origin for the public API",
			Sources: sources(src, "serve", "cors_origin", "SPOTCTL_CORS_ORIGIN"),
			Value:   "*",
		},
		&cli.StringFlag{
			Name:    "admin-email",
			Usage:   "admin API user",
			Sources: sources(src, "serve", "admin_email", "SPOTCTL_ADMIN_EMAIL"),
		},
		&cli.StringFlag{
			Name:    "admin-hash",
			Usage:   "bcrypt hash of the admin password (see hash-password)",
			Sources: sources(src, "serve", "admin_hash", "SPOTCTL_ADMIN_HASH"),
		},
		&cli.IntFlag{
			Name:    "shutdown-timeout",
			Usage:   "seconds to drain requests on shutdown",
			Sources: sources(src, "serve", "shutdown_timeout", "SPOTCTL_SHUTDOWN_TIMEOUT"),
			Value:   int(server.DefaultShutdownTimeout.Seconds()),
			Validator: func(value int) error {
				return FlagValidators(value, PositiveIntValidator)
			},
		},
	}
	flags = append(flags, NewStoreFlags(src, "serve")...)
	flags = append(flags, NewQuoteFlags(src, "serve")...)
	flags = append(flags, NewCalcFlags(src, "serve")...)
	flags = append(flags, NewCatalogFlags(src, "serve")...)

	return &cli.Command{
		Name:      "serve",
		Usage:     "run the price proxy, calculator and catalog HTTP server",
		UsageText: `spotctl serve [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: ServeCommandAction,
	}
}
