package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rogerio-castellano/product-management/internal/apperr"
	"github.com/rogerio-castellano/product-management/internal/http/respond"
)

const maxBodyBytes = 1048576 // one megabyte

// readJSON decodes a single JSON value from the request body into data.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(data); err != nil {
		return apperr.Validation(map[string]string{"body": fmt.Sprintf("malformed JSON: %v", err)})
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperr.Validation(map[string]string{"body": "body must have only a single json value"})
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	respond.JSON(w, status, data)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, err)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(map[string]string{name: "must be a valid UUID"})
	}
	return id, nil
}
