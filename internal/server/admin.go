// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/apex/log"

	"github.com/oroclass/spotctl/internal/catalog"
	"github.com/oroclass/spotctl/internal/upload"
)

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

const formMemory = 8 << 20

type itemsBody struct {
	Items   []catalog.Item  `json:"items"`
	Version catalog.Version `json:"version"`
}

type itemBody struct {
	Item    catalog.Item    `json:"item"`
	Version catalog.Version `json:"version"`
}

type soldBody struct {
	ID      int64           `json:"id"`
	Sold    bool            `json:"sold"`
	Version catalog.Version `json:"version"`
}

func (s *Server) handleAdminList(w http.ResponseWriter, r *http.Request) {
	items, v, err := s.catalog.List()
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []catalog.Item{}
	}
	writeJSON(w, http.StatusOK, itemsBody{Items: items, Version: v})
}

func (s *Server) handleAdminAdd(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		fail(w, r, err)
		return
	}
	expected, err := formVersion(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	refs, err := s.uploads.Save(upload.FromMultipart(formFiles(r.MultipartForm, "images")), upload.Strict)
	if err != nil {
		fail(w, r, err)
		return
	}

	item, v, err := s.catalog.Add(formDraft(r), refs, expected)
	if err != nil {
		s.discard(refs)
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemBody{Item: item, Version: v})
}

func (s *Server) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		fail(w, r, err)
		return
	}
	expected, err := formVersion(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	refs, err := s.uploads.Save(upload.FromMultipart(formFiles(r.MultipartForm, "images")), upload.Truncate)
	if err != nil {
		fail(w, r, err)
		return
	}

	changes := catalog.ImageChanges{
		Order:    splitList(r.PostFormValue("existing_order")),
		Delete:   formValues(r, "delete_images"),
		Uploaded: refs,
	}
	ch, v, err := s.catalog.Update(id, formDraft(r), changes, expected)
	if err != nil {
		s.discard(refs)
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemBody{Item: ch.After, Version: v})
}

func (s *Server) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	expected, err := parseVersion(r.URL.Query().Get("version"))
	if err != nil {
		fail(w, r, err)
		return
	}

	item, v, err := s.catalog.Delete(id, expected)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemBody{Item: item, Version: v})
}

func (s *Server) handleAdminToggle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	raw := r.URL.Query().Get("version")
	if raw == "" {
		raw = r.PostFormValue("version")
	}
	expected, err := parseVersion(raw)
	if err != nil {
		fail(w, r, err)
		return
	}

	sold, v, err := s.catalog.ToggleSold(id, expected)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, soldBody{ID: id, Sold: sold, Version: v})
}

// parseForm caps the body at every allowed image plus a megabyte of fields.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	limit := int64(upload.MaxFiles+1)*s.uploads.MaxBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(formMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return err
		}
		return badRequest("malformed form: %v", err)
	}
	return nil
}

// discard removes images saved for a request whose catalog write failed.
func (s *Server) discard(refs []string) {
	for _, ref := range refs {
		if err := s.uploads.Remove(ref); err != nil {
			log.WithError(err).WithField("image", ref).Warn("failed to discard upload")
		}
	}
}

func formDraft(r *http.Request) catalog.Draft {
	return catalog.Draft{
		Title:       r.PostFormValue("title"),
		Price:       r.PostFormValue("price"),
		Description: r.PostFormValue("description"),
	}
}

func formVersion(r *http.Request) (catalog.Version, error) {
	return parseVersion(r.PostFormValue("version"))
}

func parseVersion(raw string) (catalog.Version, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, badRequest("invalid version %q", raw)
	}
	return catalog.Version(n), nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid item id %q", r.PathValue("id"))
	}
	return id, nil
}

// formFiles accepts both the bare field name and the PHP-style "name[]".
func formFiles(form *multipart.Form, name string) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	return append(append([]*multipart.FileHeader(nil), form.File[name]...), form.File[name+"[]"]...)
}

func formValues(r *http.Request, name string) []string {
	vals := append(append([]string(nil), r.PostForm[name]...), r.PostForm[name+"[]"]...)
	out := vals[:0]
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
