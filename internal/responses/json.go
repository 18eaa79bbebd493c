// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package responses writes PeeringDB-shaped JSON envelopes.
package responses

import (
	"encoding/json"
	"net/http"
)

// Envelope mirrors the upstream list response shape.
type Envelope struct {
	Meta struct{}          `json:"meta"`
	Data []json.RawMessage `json:"data"`
}

type errorMeta struct {
	Error string `json:"error"`
}

type errorEnvelope struct {
	Meta errorMeta `json:"meta"`
}

// WriteData writes the standard {"meta":{},"data":[...]} envelope.
func WriteData(w http.ResponseWriter, status int, data []json.RawMessage) error {
	if data == nil {
		data = []json.RawMessage{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(Envelope{Data: data})
}

// WriteRaw writes a stored payload verbatim as the response body.
func WriteRaw(w http.ResponseWriter, status int, payload []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(payload)
	return err
}

// WriteError writes {"meta":{"error":...}} with a fixed message, never
// internal error detail.
func WriteError(w http.ResponseWriter, status int, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(errorEnvelope{Meta: errorMeta{Error: message}})
}

// WriteJSON writes an arbitrary document, used by the admin surface.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
