// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router

import (
	"net/http"
	"strings"

	"pdbmirror/internal/api/admin"
	"pdbmirror/internal/api/mirror"
	"pdbmirror/internal/responses"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New wires the public read API, the liveness and metrics endpoints, and
// the token-guarded admin trigger.
func New(mirrorh *mirror.Handler, adminh *admin.Handler, syncSecret string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("/admin/sync", BearerAuth(syncSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		adminh.RunSync(w, r)
	})))

	mux.HandleFunc("/api/", apiHandler(mirrorh))

	return RequestLoggerMiddleware(mux)
}

func apiHandler(h *mirror.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Split /api/{resource}[/{id}] by hand; the two shapes share one
		// route prefix.
		path := strings.TrimPrefix(r.URL.Path, "/api/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.SplitN(path, "/", 2)

		resource := parts[0]
		if resource == "" {
			responses.WriteError(w, http.StatusBadRequest, "unknown resource")
			return
		}

		if len(parts) == 2 && parts[1] != "" {
			h.GetByID(w, r, resource, parts[1])
			return
		}
		h.Query(w, r, resource)
	}
}
