package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rogerio-castellano/product-management/internal/apperr"
)

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		expectStatus  int
		expectMessage string
	}{
		{"validation", apperr.Validation(map[string]string{"size": "Page size must be greater than 0"}), http.StatusBadRequest, "Validation failed"},
		{"query", apperr.Query("cannot sort products by \"x\"", nil), http.StatusBadRequest, "cannot sort products by \"x\""},
		{"not found", apperr.NotFound("Product", "id", "abc"), http.StatusNotFound, "Product not found with id : 'abc'"},
		{"conflict", apperr.Conflict("Product with name 'Widget' already exists"), http.StatusConflict, "Product with name 'Widget' already exists"},
		{"unauthorized", apperr.Unauthorized("invalid credentials"), http.StatusUnauthorized, "invalid credentials"},
		{"forbidden", apperr.Forbidden("administrator role required"), http.StatusForbidden, "administrator role required"},
		{"upstream", apperr.Upstream("Failed to retrieve products from product service", errors.New("dial tcp")), http.StatusBadGateway, "Failed to retrieve products from product service"},
		{"unknown", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.expectStatus {
				t.Errorf("expected status %d, got %d", tt.expectStatus, rec.Code)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Status != tt.expectStatus || body.Message != tt.expectMessage {
				t.Errorf("unexpected body %+v", body)
			}
			if body.Timestamp.IsZero() {
				t.Error("expected timestamp")
			}
		})
	}
}

func TestValidationErrorCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), apperr.Validation(map[string]string{
		"page": "Page number must be greater than or equal to 0",
	}))

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Errors["page"] != "Page number must be greater than or equal to 0" {
		t.Errorf("unexpected errors %v", body.Errors)
	}
}
