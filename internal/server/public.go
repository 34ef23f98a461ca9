// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/oroclass/spotctl/internal/catalog"
	"github.com/oroclass/spotctl/internal/pricing"
	"github.com/oroclass/spotctl/internal/upload"
)

// UnavailableMessage is the 503 message when no quote was ever cached.
const UnavailableMessage = "Unable to retrieve metal prices and no cache available."

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: http.StatusText(status), Message: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, pricing.ErrInvalidWeight),
		errors.Is(err, pricing.ErrUnknownMetal),
		errors.Is(err, upload.ErrTooMany),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, upload.ErrTooLarge), errors.As(err, &tooBig):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := log.WithError(err).WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
		writeError(w, status, "internal error")
		return
	}
	entry.Debug("request rejected")
	writeError(w, status, err.Error())
}

func (s *Server) handlePreflight(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMetals(w http.ResponseWriter, r *http.Request) {
	res, err := s.quotes.GetQuote(r.Context())
	if err != nil {
		log.WithError(err).Error("no metal prices to serve")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "Service Unavailable",
			Message: UnavailableMessage,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Data-Status", res.Status.String())
	if _, err := w.Write(res.Body); err != nil {
		log.WithError(err).Debug("client went away")
	}
}

// handlePrices serves the gold quote alone, the shape older pages expect.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	res, err := s.quotes.GetQuote(r.Context())
	gold := gjson.GetBytes(res.Body, "gold")
	if err != nil || !gold.IsObject() {
		if err != nil {
			log.WithError(err).Error("no gold price to serve")
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "Service Unavailable",
			Message: UnavailableMessage,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Data-Status", res.Status.String())
	_, _ = w.Write([]byte(gold.Raw))
}

func (s *Server) handleCalc(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	metal := q.Get("metal")
	if metal == "" {
		metal = "18k"
	}
	weight, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(q.Get("weight")), ",", "."))
	if err != nil {
		fail(w, r, badRequest("weight must be a number"))
		return
	}
	if _, err := pricing.Lookup(metal); err != nil {
		fail(w, r, err)
		return
	}

	res, err := s.quotes.GetQuote(r.Context())
	if err != nil {
		log.WithError(err).Error("no metal prices to calculate with")
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "Service Unavailable",
			Message: UnavailableMessage,
		})
		return
	}

	b, err := s.calc.FromDocument(res.Body, metal, weight)
	if err != nil {
		if errors.Is(err, pricing.ErrNoPrice) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		fail(w, r, err)
		return
	}
	w.Header().Set("X-Data-Status", res.Status.String())
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	items, _, err := s.catalog.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "up"})
}
