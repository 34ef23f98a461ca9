// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/oroclass/spotctl/internal/backend"
	"github.com/oroclass/spotctl/internal/meta"
	"github.com/oroclass/spotctl/internal/output"
	"github.com/oroclass/spotctl/internal/quote"
)

// quoteColumns are the per-metal values shown by `quote`.
var quoteColumns = []output.Column{
	{Key: "metal", Title: "metal"},
	{Key: "quote.metal", Title: "symbol"},
	{Key: "quote.currency", Title: "currency"},
	{Key: "quote.price", Title: "ounce", Format: money},
	{Key: "quote.price_gram_24k", Title: "gram_24k", Format: money},
	{Key: "quote.price_gram_18k", Title: "gram_18k", Format: money},
	{Key: "quote.chp", Title: "change_pct", Format: money},
}

// money renders a JSON number with two decimals, leaving anything else as is.
func money(v gjson.Result) any {
	if v.Type != gjson.Number {
		return v.Value()
	}
	d, err := decimal.NewFromString(v.Raw)
	if err != nil {
		return v.Raw
	}
	return d.StringFixed(2)
}

// QuoteRows splits a quote document into one row per metal.
func QuoteRows(body []byte) []gjson.Result {
	rows := make([]gjson.Result, 0, 2) //nolint:mnd
	for _, metal := range []string{"gold", "silver"} {
		q := gjson.GetBytes(body, metal)
		if !q.Exists() {
			continue
		}
		rows = append(rows, gjson.Parse(fmt.Sprintf(`{"metal":%q,"quote":%s}`, metal, q.Raw)))
	}
	return rows
}

// QuoteCommandAction fetches one quote through the configured cache and
// prints it.
func QuoteCommandAction(ctx context.Context, cmd *cli.Command) error {
	m := GetMeta(cmd)
	log.Debugf("Executing action for %v", m.Args[1:])

	if ShortCircuitTLDR(ctx, cmd, "quote") {
		return nil
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
	log.WithField("status", res.Status.String()).Debug("quote served")

	return writeQuote(stdout(cmd), res, OutputOptions(cmd), time.Now())
}

func writeQuote(w io.Writer, res quote.Result, opts output.Options, now time.Time) error {
	if opts.Format == "raw" {
		_, err := fmt.Fprintf(w, "%s\n", res.Body)
		return err
	}

	dataset := output.Project(QuoteRows(res.Body), quoteColumns)
	if err := output.Emit(w, dataset, quoteColumns, opts); err != nil {
		return err
	}
	if opts.Format != "text" && opts.Format != "" {
		return nil
	}

	doc, err := res.Document()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\nupdated %s (%s, %s)\n",
		doc.UpdatedHuman, humanize.RelTime(doc.Updated(), now, "ago", "from now"), res.Status)
	return err
}

// QuoteCommandBuilder constructs the cli.Command definition for "quote".
func QuoteCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	flags := []cli.Flag{tldrFlag}
	flags = append(flags, NewStoreFlags(src, "quote")...)
	flags = append(flags, NewQuoteFlags(src, "quote")...)
	flags = append(flags, NewOutputFlags(src, "quote", "text", "json", "yaml", "raw")...)

	return &cli.Command{
		Name:      "quote",
		Usage:     "show gold and silver spot prices through the cache",
		UsageText: `spotctl quote [options]`,
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags:  flags,
		Action: QuoteCommandAction,
	}
}
