// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oroclass/spotctl/internal/config"
)

func withConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spotctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("SPOTCTL_CFG", path)
	_, err := config.Load()
	require.NoError(t, err)
}

func TestMangleArguments(t *testing.T) {
	withConfig(t, `
quote:
  defaults:
    - "-o json"
  wide:
    - "--freshness 60"
    - "-o yaml"
`)

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "defaults inserted after the command",
			in:   []string{"spotctl", "quote", "--store", "memory"},
			want: []string{"spotctl", "quote", "-o", "json", "--store", "memory"},
		},
		{
			name: "named set replaces defaults in place",
			in:   []string{"spotctl", "quote", "--store", "memory", "@wide", "-o", "raw"},
			want: []string{"spotctl", "quote", "--store", "memory", "--freshness", "60", "-o", "yaml", "-o", "raw"},
		},
		{
			name: "unknown set expands to nothing",
			in:   []string{"spotctl", "quote", "@nope"},
			want: []string{"spotctl", "quote"},
		},
		{
			name: "command without sets",
			in:   []string{"spotctl", "calc", "-w", "1"},
			want: []string{"spotctl", "calc", "-w", "1"},
		},
		{
			name: "help untouched",
			in:   []string{"spotctl", "quote", "--help"},
			want: []string{"spotctl", "quote", "--help"},
		},
		{
			name: "leading flag untouched",
			in:   []string{"spotctl", "--version"},
			want: []string{"spotctl", "--version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mangleArguments(tt.in))
		})
	}
}
