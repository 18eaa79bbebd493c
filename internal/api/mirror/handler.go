// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package mirror serves the read side of the mirrored dataset with
// upstream-compatible query semantics.
package mirror

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pdbmirror/internal/object"
	"pdbmirror/internal/registry"
	"pdbmirror/internal/responses"

	"gorm.io/gorm"
)

type Handler struct {
	Store object.Store
	// DefaultLimit bounds list responses when the caller gives no limit.
	DefaultLimit int
}

func NewHandler(store object.Store, defaultLimit int) *Handler {
	return &Handler{Store: store, DefaultLimit: defaultLimit}
}

// GetByID handles GET /api/{resource}/{id}: the bare stored payload, or
// 404 when the object was never mirrored.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request, resource, idRaw string) {
	if !registry.Contains(resource) {
		responses.WriteError(w, http.StatusBadRequest, "unknown resource")
		return
	}
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil {
		responses.WriteError(w, http.StatusBadRequest, "id must be an integer")
		return
	}

	obj, err := h.Store.Get(r.Context(), resource, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			responses.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		responses.WriteError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	responses.WriteRaw(w, http.StatusOK, obj.Payload)
}

// Query handles GET /api/{resource}?id=&since=&limit=. since is Unix
// seconds; it is converted to the stored timestamp form so the filter
// compares exactly the way the store does.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request, resource string) {
	if !registry.Contains(resource) {
		responses.WriteError(w, http.StatusBadRequest, "unknown resource")
		return
	}

	q := object.Query{Limit: h.DefaultLimit}
	values := r.URL.Query()

	if raw := values.Get("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			responses.WriteError(w, http.StatusBadRequest, "id must be an integer")
			return
		}
		q.ID = id
		q.HasID = true
	}
	if raw := values.Get("since"); raw != "" {
		epoch, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			responses.WriteError(w, http.StatusBadRequest, "since must be an integer")
			return
		}
		q.Since = object.EpochToUpdated(epoch)
	}
	if raw := values.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			q.Limit = limit
		}
	}

	objs, err := h.Store.List(r.Context(), resource, q)
	if err != nil {
		responses.WriteError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	payloads := make([]json.RawMessage, 0, len(objs))
	for _, o := range objs {
		payloads = append(payloads, json.RawMessage(o.Payload))
	}
	responses.WriteData(w, http.StatusOK, payloads)
}
