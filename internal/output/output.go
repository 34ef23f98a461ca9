// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"

	"github.com/oroclass/spotctl/internal/config"
)

// Formats are the accepted --output values for tabular data.
var Formats = []string{"text", "json", "yaml"}

// Column projects one value out of a JSON row. Key is a gjson path; Title is
// the output key and table header. Format, when set, renders the cell.
type Column struct {
	Key    string
	Title  string
	Format func(gjson.Result) any
}

// Options control Emit.
type Options struct {
	Format string
	Titles bool
	Color  bool
	Sort   string
}

// Project turns JSON rows into output maps keyed by column title.
func Project(rows []gjson.Result, cols []Column) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]interface{}, len(cols))
		for _, c := range cols {
			v := row.Get(c.Key)
			if c.Format != nil {
				m[c.Title] = c.Format(v)
			} else {
				m[c.Title] = v.Value()
			}
		}
		out = append(out, m)
	}
	return out
}

// Emit sorts the dataset per opts.Sort and renders it as text, json or yaml.
func Emit(w io.Writer, dataset []map[string]interface{}, cols []Column, opts Options) error {
	SortDataset(dataset, opts.Sort)

	switch opts.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if dataset == nil {
			dataset = []map[string]interface{}{}
		}
		return enc.Encode(dataset)
	case "yaml":
		out, err := yaml.Marshal(dataset)
		if err != nil {
			return fmt.Errorf("failed to marshal yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case "", "text":
		TableWriter(dataset, cols, opts, w)
		return nil
	}
	return fmt.Errorf("unsupported output format %q", opts.Format)
}

// TableWriter renders the result set in a tabular form honoring color, titles
// and padding options.
func TableWriter(resultSet []map[string]interface{}, cols []Column, opts Options, w io.Writer) {
	if len(resultSet) == 0 {
		return
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerColor, evenColor, oddColor := getColors("colors")

		headerStyle = headerStyle.Foreground(lipgloss.Color(headerColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(evenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(oddColor))
	}

	pad, _ := config.GetInt("padding", 2) //nolint:mnd
	log.Debugf("padding: %v", pad)

	var rows [][]string
	for _, result := range resultSet {
		row := make([]string, 0, len(cols))
		for _, c := range cols {
			row = append(row, InterfaceToString(result[c.Title], "-"))
		}
		rows = append(rows, row)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}

			if col > 0 {
				style = style.PaddingLeft(pad)
			}

			return style
		}).
		Headers().
		Rows(rows...)

	if opts.Titles {
		headers := make([]string, 0, len(cols))
		for _, c := range cols {
			headers = append(headers, strings.ToUpper(c.Title))
		}

		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// SortDataset sorts rows in place. spec is a comma separated list of keys;
// a leading '-' sorts descending and a leading '!' makes string comparison
// case sensitive. An empty spec leaves the order untouched.
func SortDataset(dataset []map[string]interface{}, spec string) {
	if spec == "" {
		return
	}

	type sortKey struct {
		name      string
		desc      bool
		sensitive bool
	}

	var keys []sortKey
	for _, raw := range strings.Split(spec, ",") {
		k := sortKey{name: strings.TrimSpace(raw)}
		for len(k.name) > 0 && (k.name[0] == '-' || k.name[0] == '!') {
			if k.name[0] == '-' {
				k.desc = true
			} else {
				k.sensitive = true
			}
			k.name = k.name[1:]
		}
		if k.name != "" {
			keys = append(keys, k)
		}
	}

	sort.SliceStable(dataset, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(dataset[i][k.name], dataset[j][k.name], k.sensitive)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compareValues(a, b interface{}, sensitive bool) int {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}

	sa, sb := fmt.Sprintf("%v", a), fmt.Sprintf("%v", b)
	if a == nil {
		sa = ""
	}
	if b == nil {
		sb = ""
	}
	if !sensitive {
		sa, sb = strings.ToLower(sa), strings.ToLower(sb)
	}
	return strings.Compare(sa, sb)
}

// getColors returns configured color values for table rendering.
func getColors(key string) (header string, even string, odd string) {
	header, _ = config.GetString(fmt.Sprintf("%s.title", key), "#f6be00")
	even, _ = config.GetString(fmt.Sprintf("%s.even", key), "#ffffff")
	odd, _ = config.GetString(fmt.Sprintf("%s.odd", key), "#00c8f0")
	return
}

// InterfaceToString converts supported primitive or composite values to a
// string. A custom empty value may be provided.
func InterfaceToString(value interface{}, emptyValue ...string) string {
	if len(emptyValue) == 0 {
		emptyValue = []string{""}
	}

	if value == nil || reflect.ValueOf(value).IsZero() {
		return emptyValue[0]
	}

	switch value := value.(type) {
	case string:
		return value
	case int:
		return strconv.Itoa(value)
	case float64:
		// Ids and counts are the only bare numbers in tables; money is rendered
		// to strings upstream.
		return fmt.Sprintf("%.0f", value)
	case bool:
		return strconv.FormatBool(value)
	case fmt.Stringer:
		return value.String()
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(jsonBytes)
	}
}
