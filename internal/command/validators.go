// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oroclass/spotctl/internal/pricing"
)

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

// OneOfValidator accepts only the listed values.
func OneOfValidator(valid ...string) FlagValidatorType {
	return func(value any) error {
		if !slices.Contains(valid, value.(string)) {
			return fmt.Errorf("must be one of %v", valid)
		}
		return nil
	}
}

func PositiveIntValidator(value any) error {
	if value.(int) <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func DecimalValidator(value any) error {
	d, err := decimal.NewFromString(strings.TrimSpace(value.(string)))
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	return nil
}

func MetalValidator(value any) error {
	_, err := pricing.Lookup(value.(string))
	return err
}
