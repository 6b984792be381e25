//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package designer

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/autorpa/flowforge/log"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.ErrorfContext(r.Context(), "encoding JSON response: %v", err)
	}
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status >= http.StatusInternalServerError {
		log.ErrorfContext(r.Context(), "%s %s: %s", r.Method, r.URL.Path, message)
	}
	respondJSON(w, r, status, map[string]string{
		"error": message,
	})
}

// decodeJSON reads a bounded JSON body into v and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request JSON: "+err.Error())
		return false
	}
	return true
}
