// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

var (
	// GramsPerTroyOunce converts an ounce price to a gram price.
	GramsPerTroyOunce = decimal.RequireFromString("31.1034768")

	DefaultSpread = decimal.RequireFromString("0.25")
	DefaultPayout = decimal.NewFromInt(1)
)

var (
	ErrNoPrice       = errors.New("quote has no usable price")
	ErrInvalidWeight = errors.New("weight must be greater than zero")
)

// SpotPerGram reads the 24k per-gram price of field ("gold" or "silver") from
// a quote document, deriving it from the ounce price when the gram field is
// missing.
func SpotPerGram(doc []byte, field string) (decimal.Decimal, error) {
	q := gjson.GetBytes(doc, field)
	if !q.Exists() {
		return decimal.Zero, fmt.Errorf("%w: %s missing", ErrNoPrice, field)
	}

	if g := q.Get("price_gram_24k"); g.Type == gjson.Number {
		d, err := decimal.NewFromString(g.Raw)
		if err == nil && d.IsPositive() {
			return d, nil
		}
	}

	p := q.Get("price")
	if p.Type != gjson.Number {
		return decimal.Zero, fmt.Errorf("%w: %s.price", ErrNoPrice, field)
	}
	ounce, err := decimal.NewFromString(p.Raw)
	if err != nil || !ounce.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s.price=%s", ErrNoPrice, field, p.Raw)
	}
	return ounce.Div(GramsPerTroyOunce), nil
}

// Calculator turns a spot price into a customer payout: the purity-scaled
// gross, times Payout, less Spread per gram.
type Calculator struct {
	Spread decimal.Decimal
	Payout decimal.Decimal
}

func NewCalculator() Calculator {
	return Calculator{Spread: DefaultSpread, Payout: DefaultPayout}
}

// Breakdown is every step of one calculation. Money values are rounded to
// cents; Purity keeps its three decimals.
type Breakdown struct {
	Metal        string          `json:"metal"`
	Label        string          `json:"label"`
	Weight       decimal.Decimal `json:"weight"`
	SpotPerGram  decimal.Decimal `json:"spot_per_gram"`
	Purity       decimal.Decimal `json:"purity"`
	GrossPerGram decimal.Decimal `json:"gross_per_gram"`
	Payout       decimal.Decimal `json:"payout"`
	Spread       decimal.Decimal `json:"spread_per_gram"`
	NetPerGram   decimal.Decimal `json:"net_per_gram"`
	Total        decimal.Decimal `json:"total"`
}

// Calculate prices weight grams of m at spot per gram. All intermediate
// arithmetic is exact; rounding happens only on the returned values. The net
// per gram is floored at zero.
func (c Calculator) Calculate(m Metal, spot, weight decimal.Decimal) (Breakdown, error) {
	if !weight.IsPositive() {
		return Breakdown{}, ErrInvalidWeight
	}
	if !spot.IsPositive() {
		return Breakdown{}, ErrNoPrice
	}

	gross := spot.Mul(m.Purity)
	net := gross.Mul(c.Payout).Sub(c.Spread)
	if net.IsNegative() {
		net = decimal.Zero
	}
	total := net.Mul(weight)

	return Breakdown{
		Metal:        m.Code,
		Label:        m.Label,
		Weight:       weight,
		SpotPerGram:  spot.Round(2),
		Purity:       m.Purity,
		GrossPerGram: gross.Round(2),
		Payout:       c.Payout,
		Spread:       c.Spread.Round(2),
		NetPerGram:   net.Round(2),
		Total:        total.Round(2),
	}, nil
}

// FromDocument looks up metal code, reads its spot price from doc, and
// calculates the payout for weight grams.
func (c Calculator) FromDocument(doc []byte, code string, weight decimal.Decimal) (Breakdown, error) {
	m, err := Lookup(code)
	if err != nil {
		return Breakdown{}, err
	}
	spot, err := SpotPerGram(doc, m.Field)
	if err != nil {
		return Breakdown{}, err
	}
	return c.Calculate(m, spot, weight)
}
