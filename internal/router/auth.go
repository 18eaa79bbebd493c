// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package router

import (
	"crypto/subtle"
	"net/http"

	"pdbmirror/internal/responses"
)

// BearerAuth guards the admin surface with a constant-time token check.
// An empty configured secret disables the surface entirely.
func BearerAuth(secret string, next http.Handler) http.Handler {
	expected := []byte("Bearer " + secret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := []byte(r.Header.Get("Authorization"))
		if secret == "" || subtle.ConstantTimeCompare(auth, expected) != 1 {
			responses.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
