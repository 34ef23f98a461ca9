// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/oroclass/spotctl/internal/meta"
)

// readPassword prompts on the terminal without echo, or reads one line from
// r when it is not a terminal.
func readPassword(r io.Reader, prompt io.Writer) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// HashPasswordAction prints a bcrypt hash suitable for --admin-hash.
func HashPasswordAction(_ context.Context, cmd *cli.Command) error {
	in := cmd.Root().Reader
	if in == nil {
		in = os.Stdin
	}

	pw, err := readPassword(in, os.Stderr)
	if err != nil {
		return err
	}
	if pw == "" {
		return errors.New("empty password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pw), cmd.Int("cost"))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(stdout(cmd), string(hash))
	return err
}

func HashPasswordCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "hash-password",
		Usage:     "hash an admin password for serve --admin-hash",
		UsageText: `spotctl hash-password [--cost N] < password.txt`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "cost",
				Usage: "bcrypt cost",
				Value: bcrypt.DefaultCost,
				Validator: func(value int) error {
					if value < bcrypt.MinCost || value > bcrypt.MaxCost {
						return fmt.Errorf("must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
					}
					return nil
				},
			},
		},
		Action: HashPasswordAction,
	}
}
