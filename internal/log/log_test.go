// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestHandleLog(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)

	e := &log.Entry{
		Level:     log.WarnLevel,
		Message:   "stale quote served",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Fields:    log.Fields{"symbol": "XAU", "age": "25h0m0s"},
	}
	assert.NoError(t, h.HandleLog(e))
	assert.Equal(t, "2026-01-02 03:04:05 W stale quote served age=25h0m0s symbol=XAU\n", buf.String())
}

func TestHandleLog_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: NewHandler(&buf), Level: log.DebugLevel}

	logger.WithError(errors.New("boom")).Error("write failed")
	assert.Contains(t, buf.String(), " E write failed error=boom")
}

func TestHandleLog_JoinedErrorStaysOnOneLine(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: NewHandler(&buf), Level: log.DebugLevel}

	err := errors.Join(
		errors.New("XAU: upstream unavailable (HTTP 503)"),
		errors.New("XAG: upstream unavailable (HTTP 503)"),
	)
	logger.WithError(err).Warn("refresh failed")

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, " W refresh failed error=XAU: upstream unavailable (HTTP 503); XAG: upstream unavailable (HTTP 503)\n")
}

func TestHandleLog_MultilineMessage(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)

	e := &log.Entry{
		Level:     log.InfoLevel,
		Message:   "first\r\nsecond",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Fields:    log.Fields{},
	}
	assert.NoError(t, h.HandleLog(e))
	assert.Equal(t, "2026-01-02 03:04:05 I first; second\n", buf.String())
}

func TestInitLogger_Level(t *testing.T) {
	t.Setenv("SPOTCTL_LOG", "debug")
	InitLogger("error")
	assert.Equal(t, log.DebugLevel, log.Log.(*log.Logger).Level)

	t.Setenv("SPOTCTL_LOG", "")
	InitLogger("warn")
	assert.Equal(t, log.WarnLevel, log.Log.(*log.Logger).Level)
}
