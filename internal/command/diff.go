// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"

	"github.com/oroclass/spotctl/internal/catalog"
)

// WriteItemDiff prints an ASCII diff between two versions of an item, or a
// note when nothing changed.
func WriteItemDiff(w io.Writer, before, after catalog.Item, color bool) error {
	left, err := json.Marshal(before)
	if err != nil {
		return err
	}
	right, err := json.Marshal(after)
	if err != nil {
		return err
	}

	d, err := gojsondiff.New().Compare(left, right)
	if err != nil {
		return fmt.Errorf("failed to diff item: %w", err)
	}
	if !d.Modified() {
		_, err = fmt.Fprintf(w, "item %d unchanged\n", after.ID)
		return err
	}

	var leftObj map[string]interface{}
	if err := json.Unmarshal(left, &leftObj); err != nil {
		return err
	}
	f := formatter.NewAsciiFormatter(leftObj, formatter.AsciiFormatterConfig{
		ShowArrayIndex: true,
		Coloring:       color,
	})
	out, err := f.Format(d)
	if err != nil {
		return fmt.Errorf("failed to format diff: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}
