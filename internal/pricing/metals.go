// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownMetal = errors.New("unknown metal")

// Metal is a purity preset. Field names the member of the quote document the
// spot price is read from.
type Metal struct {
	Code   string
	Label  string
	Field  string
	Purity decimal.Decimal
}

var Metals = []Metal{
	{Code: "24k", Label: "Oro 24kt (999)", Field: "gold", Purity: decimal.RequireFromString("0.999")},
	{Code: "22k", Label: "Oro 22kt (916)", Field: "gold", Purity: decimal.RequireFromString("0.916")},
	{Code: "18k", Label: "Oro 18kt (750)", Field: "gold", Purity: decimal.RequireFromString("0.750")},
	{Code: "14k", Label: "Oro 14kt (585)", Field: "gold", Purity: decimal.RequireFromString("0.585")},
	{Code: "9k", Label: "Oro 9kt (375)", Field: "gold", Purity: decimal.RequireFromString("0.375")},
	{Code: "ag999", Label: "Argento 999", Field: "silver", Purity: decimal.RequireFromString("0.999")},
	{Code: "ag925", Label: "Argento 925", Field: "silver", Purity: decimal.RequireFromString("0.925")},
	{Code: "ag800", Label: "Argento 800", Field: "silver", Purity: decimal.RequireFromString("0.800")},
}

// Lookup finds a preset by code, case-insensitively.
func Lookup(code string) (Metal, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, m := range Metals {
		if m.Code == code {
			return m, nil
		}
	}
	return Metal{}, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownMetal, code, strings.Join(Codes(), ", "))
}

func Codes() []string {
	codes := make([]string, 0, len(Metals))
	for _, m := range Metals {
		codes = append(codes, m.Code)
	}
	return codes
}
