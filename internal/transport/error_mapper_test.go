package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigmarket/messaging/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"empty body", domain.ErrEmptyBody, http.StatusBadRequest, "invalid_argument"},
		{"unknown user wrapped", fmt.Errorf("%w: ghost", domain.ErrUnknownUser), http.StatusBadRequest, "invalid_argument"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"storage", domain.NewStorageError("insert", errors.New("disk full")), http.StatusInternalServerError, "storage_error"},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestDomainError_HidesStorageDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	DomainError(context.Background(), rec, domain.NewStorageError("insert", errors.New("pq: password authentication failed")))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "storage_error", body["error"])
	assert.NotContains(t, body["message"], "password")
}
