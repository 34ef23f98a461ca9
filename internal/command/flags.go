// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"os/exec"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/oroclass/spotctl/internal/backend"
	"github.com/oroclass/spotctl/internal/cacheutil"
	"github.com/oroclass/spotctl/internal/goldapi"
	"github.com/oroclass/spotctl/internal/output"
	"github.com/oroclass/spotctl/internal/pricing"
	"github.com/oroclass/spotctl/internal/quote"
	"github.com/oroclass/spotctl/internal/upload"
)

var tldrFlag *cli.BoolFlag = &cli.BoolFlag{
	Name:        "tldr",
	Usage:       "show tldr page",
	Hidden:      !pathHas("tldr"),
	HideDefault: true,
}

// configChain looks a flag up under "<ns>.<name>" and then "<name>" in the
// config file.
func configChain(src, ns, name string) []cli.ValueSource {
	return []cli.ValueSource{
		yaml.YAML(ns+"."+name, altsrc.StringSourcer(src)),
		yaml.YAML(name, altsrc.StringSourcer(src)),
	}
}

// sources builds a chain of env vars followed by the namespaced config keys.
func sources(src, ns, name string, envs ...string) cli.ValueSourceChain {
	chain := cli.EnvVars(envs...)
	chain.Chain = append(chain.Chain, configChain(src, ns, name)...)
	return chain
}

// NewOutputFlags are the rendering flags shared by commands that print
// datasets.
func NewOutputFlags(src, ns string, formats ...string) (flags []cli.Flag) {
	if len(formats) == 0 {
		formats = output.Formats
	}

	flags = []cli.Flag{
		&cli.BoolWithInverseFlag{
			Name:    "color",
			Aliases: []string{"c"},
			Usage:   "enable colored text output",
			Sources: cli.NewValueSourceChain(configChain(src, ns, "color")...),
			Value:   false,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format",
			Sources: cli.NewValueSourceChain(configChain(src, ns, "output")...),
			Value:   "text",
			Validator: func(value string) error {
				return FlagValidators(value, OneOfValidator(formats...))
			},
		},
		&cli.BoolWithInverseFlag{
			Name:    "titles",
			Aliases: []string{"t"},
			Usage:   "show titles with text output",
			Sources: cli.NewValueSourceChain(configChain(src, ns, "titles")...),
			Value:   true,
		},
	}

	return
}

// NewListFlags adds filtering and sorting to the output flags.
func NewListFlags(src, ns string) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "filter",
			Aliases: []string{"f"},
			Usage:   "comma-separated list of filters to apply to results",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "sort",
			Aliases: []string{"s"},
			Usage:   "comma-separated list of attributes to sort the results by",
			Sources: cli.NewValueSourceChain(yaml.YAML(ns+".sort", altsrc.StringSourcer(src))),
		},
	}, NewOutputFlags(src, ns)...)
}

// NewStoreFlags select and configure the quote cache store.
func NewStoreFlags(src, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "store",
			Usage:   "quote cache store",
			Sources: sources(src, ns, "store", "SPOTCTL_STORE"),
			Value:   "file",
			Validator: func(value string) error {
				return FlagValidators(value, OneOfValidator(backend.Names...))
			},
		},
		&cli.StringFlag{
			Name:    "cache-path",
			Usage:   "quote cache file for the file store",
			Sources: sources(src, ns, "cache_path", "SPOTCTL_CACHE_PATH"),
			Value:   cacheutil.DefaultPath(),
		},
		&cli.StringFlag{
			Name:    "bucket",
			Usage:   "S3 bucket for the s3 store",
			Sources: sources(src, ns, "bucket", "SPOTCTL_BUCKET"),
		},
		&cli.StringFlag{
			Name:    "key",
			Usage:   "object or row key for the s3 and sqlite stores",
			Sources: sources(src, ns, "key", "SPOTCTL_KEY"),
			Value:   cacheutil.DefaultFileName,
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region for the s3 store",
			Sources: sources(src, ns, "region", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "AWS profile for the s3 store",
			Sources: sources(src, ns, "profile", "AWS_PROFILE"),
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "S3-compatible endpoint URL",
			Sources: sources(src, ns, "endpoint", "SPOTCTL_S3_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:    "dsn",
			Usage:   "database file for the sqlite store",
			Sources: sources(src, ns, "dsn", "SPOTCTL_DSN"),
		},
	}
}

// NewQuoteFlags configure the upstream client and the freshness window.
func NewQuoteFlags(src, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "token",
			Usage:   "price API access token",
			Sources: sources(src, ns, "token", "SPOTCTL_TOKEN", "GOLDAPI_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "price API base URL",
			Sources: sources(src, ns, "base_url", "SPOTCTL_BASE_URL"),
			Value:   goldapi.DefaultBaseURL,
		},
		&cli.StringFlag{
			Name:    "currency",
			Usage:   "quote currency",
			Sources: sources(src, ns, "currency", "SPOTCTL_CURRENCY"),
			Value:   goldapi.DefaultCurrency,
		},
		&cli.IntFlag{
			Name:    "freshness",
			Usage:   "seconds a cached quote is served without refreshing",
			Sources: sources(src, ns, "freshness", "SPOTCTL_FRESHNESS"),
			Value:   int(quote.DefaultWindow.Seconds()),
			Validator: func(value int) error {
				return FlagValidators(value, PositiveIntValidator)
			},
		},
		&cli.IntFlag{
			Name:    "timeout",
			Usage:   "seconds allowed for each upstream request",
			Sources: sources(src, ns, "timeout", "SPOTCTL_TIMEOUT"),
			Value:   int(goldapi.DefaultTimeout.Seconds()),
			Validator: func(value int) error {
				return FlagValidators(value, PositiveIntValidator)
			},
		},
	}
}

// NewCalcFlags configure the payout arithmetic.
func NewCalcFlags(src, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "spread",
			Usage:   "amount subtracted per gram",
			Sources: sources(src, ns, "spread", "SPOTCTL_SPREAD"),
			Value:   pricing.DefaultSpread.String(),
			Validator: func(value string) error {
				return FlagValidators(value, DecimalValidator)
			},
		},
		&cli.StringFlag{
			Name:    "payout",
			Usage:   "fraction of the purity-scaled spot paid out",
			Sources: sources(src, ns, "payout", "SPOTCTL_PAYOUT"),
			Value:   pricing.DefaultPayout.String(),
			Validator: func(value string) error {
				return FlagValidators(value, DecimalValidator)
			},
		},
	}
}

// NewCatalogFlags locate the items file and the uploads directory.
func NewCatalogFlags(src, ns string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "items",
			Usage:   "catalog items JSON file",
			Sources: sources(src, ns, "items", "SPOTCTL_ITEMS"),
			Value:   "items.json",
		},
		&cli.StringFlag{
			Name:    "uploads",
			Usage:   "directory holding uploaded images",
			Sources: sources(src, ns, "uploads", "SPOTCTL_UPLOADS"),
			Value:   "uploads",
		},
		&cli.IntFlag{
			Name:    "max-image-bytes",
			Usage:   "largest accepted image",
			Sources: sources(src, ns, "max_image_bytes", "SPOTCTL_MAX_IMAGE_BYTES"),
			Value:   int(upload.DefaultMaxBytes),
			Validator: func(value int) error {
				return FlagValidators(value, PositiveIntValidator)
			},
		},
	}
}

// pathHas reports whether target is an executable on PATH.
func pathHas(target string) bool {
	_, err := exec.LookPath(target)
	return err == nil
}
