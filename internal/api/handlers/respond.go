package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/waleedabsoluit/stealth-scan-trader/pkg/validate"
)

// maxBodyBytes request body limit
const maxBodyBytes = 1 << 20

// ErrorResponse is the error body of every endpoint
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details validate.Errors `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondValidation maps validate.Errors to 422 with details
func respondValidation(w http.ResponseWriter, err error) {
	var verrs validate.Errors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: verrs})
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

// decodeJSON decodes an optional body; empty body leaves dest untouched
func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryLimit parses ?limit=, falling back to def on absence or junk
func queryLimit(r *http.Request, def int) int {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return def
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		return l
	}
	return def
}
