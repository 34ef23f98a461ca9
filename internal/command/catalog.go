// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/oroclass/spotctl/internal/catalog"
	"github.com/oroclass/spotctl/internal/filters"
	"github.com/oroclass/spotctl/internal/meta"
	"github.com/oroclass/spotctl/internal/output"
	"github.com/oroclass/spotctl/internal/upload"
)

var itemColumns = []output.Column{
	{Key: "id", Title: "id"},
	{Key: "title", Title: "title"},
	{Key: "price", Title: "price"},
	{Key: "sold", Title: "sold"},
	{Key: "images", Title: "images", Format: func(v gjson.Result) any { return len(v.Array()) }},
}

// CatalogListAction prints the catalog, filtered and sorted.
func CatalogListAction(ctx context.Context, cmd *cli.Command) error {
	if ShortCircuitTLDR(ctx, cmd, "catalog") {
		return nil
	}

	cat, _ := OpenCatalog(cmd)
	items, v, err := cat.List()
	if err != nil {
		return err
	}
	log.Debugf("catalog version %d, %d items", v, len(items))

	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	rows := filters.FilterDataset(gjson.ParseBytes(data), cmd.String("filter"))
	return output.Emit(stdout(cmd), output.Project(rows, itemColumns), itemColumns, OutputOptions(cmd))
}

// CatalogAddAction stores the images and prepends a new item.
func CatalogAddAction(_ context.Context, cmd *cli.Command) error {
	cat, up := OpenCatalog(cmd)

	refs, err := up.Save(upload.FromPaths(cmd.StringSlice("image")), upload.Strict)
	if err != nil {
		return err
	}

	item, v, err := cat.Add(catalog.Draft{
		Title:       cmd.String("title"),
		Price:       cmd.String("price"),
		Description: cmd.String("description"),
	}, refs, catalog.Version(cmd.Int64("version")))
	if err != nil {
		discard(up, refs)
		return err
	}

	_, err = fmt.Fprintf(stdout(cmd), "added item %d (version %d)\n", item.ID, v)
	return err
}

// CatalogUpdateAction edits an item and prints what changed. Text fields
// that are not given keep their current value.
func CatalogUpdateAction(_ context.Context, cmd *cli.Command) error {
	id, err := itemID(cmd)
	if err != nil {
		return err
	}
	cat, up := OpenCatalog(cmd)

	current, _, err := cat.Get(id)
	if err != nil {
		return err
	}
	d := catalog.Draft{Title: current.Title, Price: current.Price, Description: current.Description}
	if cmd.IsSet("title") {
		d.Title = cmd.String("title")
	}
	if cmd.IsSet("price") {
		d.Price = cmd.String("price")
	}
	if cmd.IsSet("description") {
		d.Description = cmd.String("description")
	}

	refs, err := up.Save(upload.FromPaths(cmd.StringSlice("image")), upload.Truncate)
	if err != nil {
		return err
	}

	var order []string
	if raw := cmd.String("order"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				order = append(order, p)
			}
		}
	}

	ch, v, err := cat.Update(id, d, catalog.ImageChanges{
		Order:    order,
		Delete:   cmd.StringSlice("delete-image"),
		Uploaded: refs,
	}, catalog.Version(cmd.Int64("version")))
	if err != nil {
		discard(up, refs)
		return err
	}

	if err := WriteItemDiff(stdout(cmd), ch.Before, ch.After, cmd.Bool("color")); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(cmd), "version %d\n", v)
	return err
}

// CatalogDeleteAction removes an item and its images.
func CatalogDeleteAction(_ context.Context, cmd *cli.Command) error {
	id, err := itemID(cmd)
	if err != nil {
		return err
	}
	cat, _ := OpenCatalog(cmd)

	item, v, err := cat.Delete(id, catalog.Version(cmd.Int64("version")))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(cmd), "deleted item %d %q (version %d)\n", item.ID, item.Title, v)
	return err
}

// CatalogToggleSoldAction flips an item's sold flag.
func CatalogToggleSoldAction(_ context.Context, cmd *cli.Command) error {
	id, err := itemID(cmd)
	if err != nil {
		return err
	}
	cat, _ := OpenCatalog(cmd)

	sold, v, err := cat.ToggleSold(id, catalog.Version(cmd.Int64("version")))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout(cmd), "item %d sold=%t (version %d)\n", id, sold, v)
	return err
}

func itemID(cmd *cli.Command) (int64, error) {
	if cmd.Args().Len() != 1 {
		return 0, errors.New("expected exactly one item ID")
	}
	id, err := strconv.ParseInt(cmd.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item ID %q", cmd.Args().First())
	}
	return id, nil
}

func discard(up *upload.Store, refs []string) {
	for _, ref := range refs {
		if err := up.Remove(ref); err != nil {
			log.WithError(err).WithField("image", ref).Warn("failed to discard upload")
		}
	}
}

func newVersionFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:  "version",
		Usage: "catalog version the change is based on (0 skips the check)",
	}
}

func draftFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "item title", Required: required},
		&cli.StringFlag{Name: "price", Usage: "item price as displayed", Required: required},
		&cli.StringFlag{Name: "description", Usage: "item description", Required: required},
		&cli.StringSliceFlag{Name: "image", Usage: fmt.Sprintf("image file to upload (max %d)", upload.MaxFiles)},
	}
}

// CatalogCommandBuilder constructs the "catalog" command and its
// subcommands.
func CatalogCommandBuilder(cmd *cli.Command, meta meta.Meta) *cli.Command {
	src := meta.Config.Source
	md := map[string]any{"meta": meta}

	withCatalog := func(flags ...cli.Flag) []cli.Flag {
		return append(flags, NewCatalogFlags(src, "catalog")...)
	}

	return &cli.Command{
		Name:      "catalog",
		Usage:     "list and edit shop items",
		UsageText: `spotctl catalog <list|add|update|delete|toggle-sold> [options]`,
		Metadata:  md,
		Commands: []*cli.Command{
			{
				Name:      "list",
				Usage:     "list items",
				UsageText: `spotctl catalog list [--filter sold=false] [options]`,
				Metadata:  md,
				Flags:     withCatalog(append([]cli.Flag{tldrFlag}, NewListFlags(src, "catalog")...)...),
				Action:    CatalogListAction,
			},
			{
				Name:      "add",
				Usage:     "add an item",
				UsageText: `spotctl catalog add --title T --price P --description D [--image FILE]...`,
				Metadata:  md,
				Flags:     withCatalog(append(draftFlags(true), newVersionFlag())...),
				Action:    CatalogAddAction,
			},
			{
				Name:      "update",
				Usage:     "edit an item and show the change",
				UsageText: `spotctl catalog update ID [--title T] [--order IMG,IMG] [--delete-image IMG] [--image FILE]...`,
				Metadata:  md,
				Flags: withCatalog(append(draftFlags(false),
					newVersionFlag(),
					&cli.StringFlag{Name: "order", Usage: "comma-separated image order"},
					&cli.StringSliceFlag{Name: "delete-image", Usage: "image reference to remove"},
					&cli.BoolFlag{Name: "color", Aliases: []string{"c"}, Usage: "color the diff"},
				)...),
				Action: CatalogUpdateAction,
			},
			{
				Name:      "delete",
				Usage:     "delete an item and its images",
				UsageText: `spotctl catalog delete ID [--version N]`,
				Metadata:  md,
				Flags:     withCatalog(newVersionFlag()),
				Action:    CatalogDeleteAction,
			},
			{
				Name:      "toggle-sold",
				Usage:     "flip an item's sold flag",
				UsageText: `spotctl catalog toggle-sold ID [--version N]`,
				Metadata:  md,
				Flags:     withCatalog(newVersionFlag()),
				Action:    CatalogToggleSoldAction,
			},
		},
	}
}
