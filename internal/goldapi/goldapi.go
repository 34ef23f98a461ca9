// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package goldapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://www.goldapi.io/api"
	DefaultCurrency = "EUR"
	DefaultTimeout  = 15 * time.Second
	// MaxBodyBytes caps an upstream response. Real quotes are well under 1 KiB.
	MaxBodyBytes int64 = 1 << 20

	Gold   = "XAU"
	Silver = "XAG"
)

var (
	// ErrUpstreamUnavailable covers transport failures, timeouts, non-200
	// statuses and unreadable bodies.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamDataInvalid is a 200 whose body has no numeric price.
	ErrUpstreamDataInvalid = errors.New("upstream data invalid")
)

// FetchError tags a failed fetch with the symbol and failure kind. errors.Is
// matches both the Kind sentinel and the underlying cause.
type FetchError struct {
	Symbol string
	Kind   error
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Symbol, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FetchError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Fetcher retrieves one symbol's quote.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string) (json.RawMessage, error)
}

// Client talks to a goldapi.io style endpoint: GET {base}/{symbol}/{currency}.
type Client struct {
	BaseURL  string
	Currency string
	Token    string
	Timeout  time.Duration
	HTTP     *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.BaseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithCurrency(cur string) Option {
	return func(c *Client) {
		if cur != "" {
			c.Currency = strings.ToUpper(cur)
		}
	}
}

// WithTimeout bounds each Fetch call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		BaseURL:  DefaultBaseURL,
		Currency: DefaultCurrency,
		Token:    token,
		Timeout:  DefaultTimeout,
		HTTP:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the quote for symbol. The returned body is the upstream
// document untouched; it is only checked for a numeric price.
func (c *Client) Fetch(ctx context.Context, symbol string) (json.RawMessage, error) {
	symbol = strings.ToUpper(symbol)
	url := fmt.Sprintf("%s/%s/%s", c.BaseURL, symbol, c.Currency)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamUnavailable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("x-access-token", c.Token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamUnavailable, Err: err}
	}
	defer resp.Body.Close()

	var doc bytes.Buffer
	if _, err := doc.ReadFrom(io.LimitReader(resp.Body, MaxBodyBytes+1)); err != nil {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamUnavailable, Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	log.WithFields(log.Fields{
		"symbol":  symbol,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("upstream fetch")

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamUnavailable, Status: resp.StatusCode}
	}

	if int64(doc.Len()) > MaxBodyBytes {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamDataInvalid, Status: resp.StatusCode, Err: fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)}
	}

	body := bytes.TrimSpace(doc.Bytes())
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamDataInvalid, Status: resp.StatusCode, Err: errors.New("body is not JSON")}
	}
	if price := gjson.GetBytes(body, "price"); price.Type != gjson.Number {
		return nil, &FetchError{Symbol: symbol, Kind: ErrUpstreamDataInvalid, Status: resp.StatusCode, Err: errors.New("missing numeric price")}
	}

	return json.RawMessage(body), nil
}
