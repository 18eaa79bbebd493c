// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package admin exposes the manual sync trigger.
package admin

import (
	"net/http"
	"time"

	"pdbmirror/internal/registry"
	"pdbmirror/internal/responses"
	"pdbmirror/internal/syncer"
)

type Handler struct {
	Syncer *syncer.Syncer
}

func NewHandler(s *syncer.Syncer) *Handler {
	return &Handler{Syncer: s}
}

// RunSync handles POST /admin/sync[?resource=name]. Per-resource
// failures are carried inside the summary, not as an HTTP error.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	if resource != "" && !registry.Contains(resource) {
		responses.WriteError(w, http.StatusBadRequest, "unknown resource")
		return
	}

	// The server's write deadline was armed before this handler ran, and a
	// first bootstrap can outlast it. Clear it so the summary still reaches
	// the caller.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	result := h.Syncer.Run(r.Context(), resource)
	responses.WriteJSON(w, http.StatusOK, result)
}
