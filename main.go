// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/oroclass/spotctl/internal/cacheutil"
	"github.com/oroclass/spotctl/internal/command"
	"github.com/oroclass/spotctl/internal/config"
	mylog "github.com/oroclass/spotctl/internal/log"
	"github.com/oroclass/spotctl/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// Secrets such as SPOTCTL_TOKEN may live in .env. Real env vars win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
	}

	args := os.Args

	// serve is long-running and worth hearing from by default.
	fallback := "error"
	if len(args) > 1 && args[1] == "serve" {
		fallback = "info"
	}
	mylog.InitLogger(fallback)

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	} else {
		// Argument sets come from the config file; a missing file means none.
		if _, err := config.Load(args[1]); err != nil {
			log.WithError(err).Debug("no config for argument sets")
		}
		args = mangleArguments(args)
	}

	// Short-circuit --version/-v.
	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Println(version.Version)
			return 0
		}
	}

	// Best-effort: pre-create the cache directory for the file store.
	if _, _, err := cacheutil.EnsureBaseDir(); err != nil {
		log.WithError(err).Debug("cache dir unavailable")
	}

	app, err := command.InitApp(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	return 0
}

// mangleArguments expands a named argument set from the config file. An
// "@name" argument inserts <command>.<name>; without one, <command>.defaults
// is inserted right after the command. Explicit flags come later on the line
// and so take precedence.
func mangleArguments(args []string) []string {
	// Short-circuit for --help/-h.
	for _, a := range args {
		if a == "--help" || a == "-h" {
			return args
		}
	}

	cmd := args[1]
	if strings.HasPrefix(cmd, "-") {
		return args
	}

	out := make([]string, 0, len(args))
	out = append(out, args[:2]...)
	rest := args[2:]

	set := "defaults"
	idx := 2
	for i, a := range rest {
		if strings.HasPrefix(a, "@") {
			set = a[1:]
			idx += i
			rest = append(append([]string(nil), rest[:i]...), rest[i+1:]...)
			break
		}
	}
	out = append(out, rest...)

	setArgs, _ := config.GetStringSlice(cmd + "." + set)
	var expanded []string
	for _, arg := range setArgs {
		expanded = append(expanded, strings.Fields(arg)...)
	}
	out = append(out[:idx], append(expanded, out[idx:]...)...)

	log.Debugf("set=%s, args=%v", set, out)
	return out
}
