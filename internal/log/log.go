// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// InitLogger sets up Apex with a custom handler and a log level from the
// SPOTCTL_LOG env variable. fallback is used when the variable is unset.
func InitLogger(fallback string) {
	level := strings.ToUpper(os.Getenv("SPOTCTL_LOG"))
	if level == "" {
		level = strings.ToUpper(fallback)
	}
	if level == "" {
		level = "ERROR"
	}
	log.SetHandler(NewHandler(os.Stderr))

	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.ErrorLevel
	}
	log.SetLevel(lvl)
}

// Handler formats log entries as a single line: timestamp, one-letter level,
// message and then any fields as key=value pairs in name order.
type Handler struct {
	mu  sync.Mutex
	out io.Writer
}

// NewHandler returns a Handler writing to w.
func NewHandler(w io.Writer) *Handler {
	return &Handler{out: w}
}

var oneLine = strings.NewReplacer("\r\n", "; ", "\n", "; ")

// HandleLog implements the log.Handler interface
func (h *Handler) HandleLog(e *log.Entry) error {
	var b strings.Builder

	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())
	fmt.Fprintf(&b, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, oneLine.Replace(e.Message))

	// Joined errors carry newlines; keep every entry on one line.
	for _, name := range e.Fields.Names() {
		fmt.Fprintf(&b, " %s=%s", name, oneLine.Replace(fmt.Sprintf("%v", e.Fields.Get(name))))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, b.String())
	return err
}
