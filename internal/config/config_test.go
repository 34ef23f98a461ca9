// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setupTestConfig points SPOTCTL_CFG at a testdata file and resets the global
// Config so the next lookup reloads it.
func setupTestConfig(t *testing.T, testdataFile string) (cleanup func()) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	assert.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("SPOTCTL_CFG", absPath)
	Config = Type{}

	return func() {
		Config = Type{}
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, ":8080", cfg.Data["addr"])
				assert.Equal(t, "EUR", cfg.Data["currency"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				store, ok := cfg.Data["store"].(map[string]interface{})
				assert.True(t, ok, "store should be a map")
				assert.Equal(t, "s3", store["backend"])
				assert.Equal(t, "spot-cache", store["bucket"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, "spot-shop", cfg.Data["name"])
				assert.Equal(t, 1, cfg.Data["version"])
				assert.Equal(t, true, cfg.Data["enabled"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				tags, ok := cfg.Data["tags"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, tags, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
			},
		},
		{
			name:     "malformed yaml",
			testFile: "broken.yaml",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("SPOTCTL_CFG", "/nonexistent/path/spotctl.yaml")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_SPOTCTL_CFG_IsDirectory(t *testing.T) {
	t.Setenv("SPOTCTL_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocation(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, writeFile(filepath.Join(dir, FileName), "addr: \":7000\"\n"))

	t.Setenv("SPOTCTL_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	Config = Type{}
	defer func() { Config = Type{} }()

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), cfg.Source)
	assert.Equal(t, ":7000", cfg.Data["addr"])
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{
			name:     "simple string value",
			testFile: "simple.yaml",
			key:      "currency",
			want:     "EUR",
		},
		{
			name:     "nested string value",
			testFile: "nested.yaml",
			key:      "store.region",
			want:     "eu-south-1",
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []string{"default-value"},
			want:         "default-value",
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-string value",
			testFile: "mixed-types.yaml",
			key:      "version",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{
			name:     "int value",
			testFile: "mixed-types.yaml",
			key:      "version",
			want:     1,
		},
		{
			name:     "float value converted to int",
			testFile: "mixed-types.yaml",
			key:      "timeout",
			want:     30,
		},
		{
			name:     "nested int value",
			testFile: "nested.yaml",
			key:      "store.max_retries",
			want:     5,
		},
		{
			name:         "missing key with default",
			testFile:     "simple.yaml",
			key:          "missing",
			defaultValue: []int{60},
			want:         60,
		},
		{
			name:     "missing key without default",
			testFile: "simple.yaml",
			key:      "missing",
			wantErr:  true,
		},
		{
			name:     "non-int value",
			testFile: "simple.yaml",
			key:      "currency",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanup := setupTestConfig(t, tt.testFile)
			defer cleanup()

			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetFloat(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	got, err := GetFloat("calc.spread")
	assert.NoError(t, err)
	assert.Equal(t, 0.25, got)

	got, err = GetFloat("calc.payout")
	assert.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = GetFloat("calc.missing", 0.5)
	assert.NoError(t, err)
	assert.Equal(t, 0.5, got)

	_, err = GetFloat("store.bucket")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	got, err := GetStringSlice("quote.sets")
	assert.NoError(t, err)
	assert.Equal(t, []string{"-o yaml", "--timeout 5"}, got)

	got, err = GetStringSlice("setting")
	assert.NoError(t, err)
	assert.Equal(t, []string{"global-value"}, got)

	_, err = GetStringSlice("quote.nope")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	cleanup := setupTestConfig(t, "nested.yaml")
	defer cleanup()

	_, err := Load("serve")
	assert.NoError(t, err)

	// Namespaced value wins over the top-level one.
	val, err := Config.get("addr")
	assert.NoError(t, err)
	assert.Equal(t, ":8080", val)

	// Falls back to the top level when the namespace lacks the key.
	Config.Namespace = "quote"
	val, err = Config.get("addr")
	assert.NoError(t, err)
	assert.Equal(t, ":9000", val)

	val, err = Config.get("timeout")
	assert.NoError(t, err)
	assert.Equal(t, 15, val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	cleanup := setupTestConfig(t, "deep-nested.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	cleanup := setupTestConfig(t, "simple.yaml")
	defer cleanup()

	val, err := GetString("currency")
	assert.NoError(t, err)
	assert.Equal(t, "EUR", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func TestGetString_NamespaceFallback(t *testing.T) {
	cleanup := setupTestConfig(t, "namespace.yaml")
	defer cleanup()

	_, err := Load()
	assert.NoError(t, err)

	Config.Namespace = "store.s3"

	val, err := GetString("setting")
	assert.NoError(t, err)
	assert.Equal(t, "s3-value", val)

	val, err = GetString("specific")
	assert.NoError(t, err)
	assert.Equal(t, "s3-specific", val)

	_, err = GetString("nonexistent")
	assert.Error(t, err)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
