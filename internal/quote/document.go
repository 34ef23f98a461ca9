// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package quote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// HumanLayout renders updated_human as dd/mm/yyyy HH:MM:SS.
const HumanLayout = "02/01/2006 15:04:05"

// Document is the persisted and served cache document. Gold and Silver are
// the upstream quote objects passed through untouched.
type Document struct {
	Gold         json.RawMessage `json:"gold"`
	Silver       json.RawMessage `json:"silver"`
	UpdatedAt    int64           `json:"updated_at"`
	UpdatedHuman string          `json:"updated_human"`
}

// NewDocument stamps gold and silver with updatedAt rendered in loc.
func NewDocument(gold, silver json.RawMessage, updatedAt int64, loc *time.Location) Document {
	if loc == nil {
		loc = time.Local
	}
	return Document{
		Gold:         gold,
		Silver:       silver,
		UpdatedAt:    updatedAt,
		UpdatedHuman: time.Unix(updatedAt, 0).In(loc).Format(HumanLayout),
	}
}

// ParseDocument decodes a cache document. It does not require both metals;
// use cacheutil.ValidQuote for that.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("failed to parse quote document: %w", err)
	}
	return doc, nil
}

// Marshal renders the document with two-space indentation and without HTML
// escaping, so upstream strings survive byte-for-byte in meaning.
func (d Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to marshal quote document: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Updated is UpdatedAt as a time.Time.
func (d Document) Updated() time.Time {
	return time.Unix(d.UpdatedAt, 0)
}
