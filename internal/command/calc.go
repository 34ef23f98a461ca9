// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/oroclass/spotctl/internal/backend"
	"github.com/oroclass/spotctl/internal/meta"
	"github.com/oroclass/spotctl/internal/output"
	"github.com/oroclass/spotctl/internal/pricing"
	"github.com/oroclass/spotctl/internal/tui"
)

var breakdownColumns = []output.Column{
	{Key: "metal", Title: "metal"},
	{Key: "label", Title: "label"},
	{Key: "weight", Title: "weight"},
	{Key: "spot_per_gram", Title: "spot_per_gram"},
	{Key: "purity", Title: "purity"},
	{Key: "gross_per_gram", Title: "gross_per_gram"},
	{Key: "payout", Title: "payout"},
	{Key: "spread_per_gram", Title: "spread_per_gram"},
	{Key: "net_per_gram", Title: "net_per_gram"},
	{Key: "total", Title: "total"},
}

var stepColumns = []output.Column{
	{Key: "step", Title: "step"},
	{Key: "value", Title: "value"},
}

// breakdownSteps lays a breakdown out one step per row for text output.
func breakdownSteps(b pricing.Breakdown, currency string) []map[string]interface{} {
	per := func(d decimal.Decimal) string { return currency + " " + d.StringFixed(2) + " /g" }
	return []map[string]interface{}{
		{"step": "metal", "value": b.Label},
		{"step": "weight", "value": b.Weight.String() + " g"},
		{"step": "spot", "value": per(b.SpotPerGram)},
		{"step": "purity", "value": "× " + b.Purity.StringFixed(3)},
		{"step": "gross", "value": per(b.GrossPerGram)},
		{"step": "payout", "value": "× " + b.Payout.String()},
		{"step": "spread", "value": "- " + per(b.Spread)},
		{"step": "net", "value": per(b.NetPerGram)},
		{"step": "total", "value": currency + " " + b.Total.StringFixed(2)},
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// CalcCommandAction prices a weight of metal against the current quote, or
// opens the interactive calculator.
func CalcCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "calc") {
		return nil
	}

	calc, err := NewCalculator(cmd)
	if err != nil {
		return err
	}

	rawWeight := strings.ReplaceAll(strings.TrimSpace(cmd.String("weight")), ",", ".")
	interactive := cmd.Bool("interactive") || (!cmd.IsSet("interactive") && rawWeight == "" && isTerminal())
	if !interactive && rawWeight == "" {
		return errors.New("--weight is required")
	}

	store, err := OpenStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(store); err != nil {
			log.WithError(err).Warn("failed to close store")
		}
	}()

	res, err := NewQuoteService(cmd, store).GetQuote(ctx)
	if err != nil {
		return err
	}
	currency := gjson.GetBytes(res.Body, "gold.currency").String()
	if currency == "" {
		currency = cmd.String("currency")
	}

	if interactive {
		model := tui.New(res.Body, calc, cmd.String("metal"), currency)
		if rawWeight != "" {
			model.SetWeight(rawWeight)
		}
		_, err := tui.Run(model, nil, stdout(cmd))
		return err
	}

	weight, err := decimal.NewFromString(rawWeight)
	if err != nil {
		return errors.New("--weight must be a number")
	}
	b, err := calc.FromDocument(res.Body, cmd.String("metal"), weight)
	if err != nil {
		return err
	}

	opts := OutputOptions(cmd)
	if opts.Format == "text" || opts.Format == "" {
		opts.Titles = false
		return output.Emit(stdout(cmd), breakdownSteps(b, currency), stepColumns, opts)
	}

	row, err := breakdownRow(b)
	if err != nil {
		return err
	}
	return output.Emit(stdout(cmd), output.Project([]gjson.Result{row}, breakdownColumns), breakdownColumns, opts)
}

func breakdownRow(b pricing.Breakdown) (gjson.Result, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(data), nil
}

// CalcCommandBuilder constructs the cli.Command definition for "calc".
func CalcCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	flags := []cli.Flag{
		tldrFlag,
		&cli.StringFlag{
			Name:    "metal",
			Aliases: []string{"m"},
			Usage:   "metal and purity: " + strings.Join(pricing.Codes(), ", "),
			Sources: cli.NewValueSourceChain(configChain(src, "calc", "metal")...),
			Value:   "18k",
			Validator: func(value string) error {
				return FlagValidators(value, MetalValidator)
			},
		},
		&cli.StringFlag{
			Name:    "weight",
			Aliases: []string{"w"},
			Usage:   "weight in grams",
		},
		&cli.BoolFlag{
			Name:        "interactive",
			Aliases:     []string{"i"},
			Usage:       "open the interactive calculator",
			HideDefault: true,
		},
	}
	flags = append(flags, NewCalcFlags(src, "calc")...)
	flags = append(flags, NewStoreFlags(src, "calc")...)
	flags = append(flags, NewQuoteFlags(src, "calc")...)
	flags = append(flags, NewOutputFlags(src, "calc")...)

	return &cli.Command{
		Name:      "calc",
		Usage:     "price a weight of gold or silver",
		UsageText: `spotctl calc --metal 18k --weight 10 [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: CalcCommandAction,
	}
}
