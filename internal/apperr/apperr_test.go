package apperr_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rogerio-castellano/product-management/internal/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"validation", apperr.Validation(map[string]string{"name": "Name is required"}), apperr.KindValidation},
		{"not found", apperr.NotFound("Product", "id", 7), apperr.KindNotFound},
		{"conflict", apperr.Conflict("dup"), apperr.KindConflict},
		{"wrapped query", fmt.Errorf("search: %w", apperr.Query("bad sort", nil)), apperr.KindQuery},
		{"plain error", fmt.Errorf("boom"), apperr.KindUnknown},
		{"nil", nil, apperr.KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := apperr.NotFound("Product", "id", "abc")
	assert.Equal(t, "Product not found with id : 'abc'", err.Error())
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := apperr.Upstream("Failed to retrieve products", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
}
