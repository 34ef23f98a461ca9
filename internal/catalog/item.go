// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"strings"
)

// MaxImages caps the images kept per item.
const MaxImages = 4

// Item is one shop listing. Image is the pre-gallery single image field; it
// is folded into Images whenever the item is updated.
type Item struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Images      []string `json:"images"`
	Image       string   `json:"image,omitempty"`
	Sold        bool     `json:"sold"`
}

// AllImages returns Images plus the legacy Image when it is not already listed.
func (it Item) AllImages() []string {
	out := append([]string(nil), it.Images...)
	if it.Image != "" && !contains(out, it.Image) {
		out = append(out, it.Image)
	}
	return out
}

// Draft carries the editable text fields of an item.
type Draft struct {
	Title       string
	Price       string
	Description string
}

// Normalize trims every field and reports the first one left empty.
func (d Draft) Normalize() (Draft, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Price = strings.TrimSpace(d.Price)
	d.Description = strings.TrimSpace(d.Description)

	switch {
	case d.Title == "":
		return d, fmt.Errorf("%w: title is required", ErrInvalid)
	case d.Price == "":
		return d, fmt.Errorf("%w: price is required", ErrInvalid)
	case d.Description == "":
		return d, fmt.Errorf("%w: description is required", ErrInvalid)
	}
	return d, nil
}

// ImageChanges describes what an update does to an item's images, applied in
// field order: Order replaces the list, Delete drops entries, Uploaded is
// prepended.
type ImageChanges struct {
	Order    []string
	Delete   []string
	Uploaded []string
}

// Change is an item before and after an update.
type Change struct {
	Before Item
	After  Item
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
