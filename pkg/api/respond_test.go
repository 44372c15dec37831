package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcmclinic/telemed/pkg/types"
)

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, "fetched", map[string]string{"id": "a-1"})

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "fetched", resp.Message)
	assert.NotNil(t, resp.Data)
}

func TestErrorMapsTaxonomyToStatusCodes(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{types.NewValidationError("bad input"), http.StatusBadRequest},
		{types.NewUnauthorizedError("no token"), http.StatusUnauthorized},
		{types.NewForbiddenError("not yours"), http.StatusForbidden},
		{types.NewNotFoundError("missing"), http.StatusNotFound},
		{types.NewConflictError("slot taken"), http.StatusConflict},
		{types.NewUnavailableError("cache down", nil), http.StatusServiceUnavailable},
		{types.NewInternalError("boom", errors.New("cause")), http.StatusInternalServerError},
		{errors.New("raw dependency error"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
	}
}

func TestErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, types.NewInternalError("pq: connection refused", errors.New("pq: connection refused")))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Message)
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/appointments?page=3&per_page=50", nil)
	p := ParsePagination(req)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.PerPage)
	assert.Equal(t, 100, p.Offset())

	req = httptest.NewRequest("GET", "/api/v1/appointments", nil)
	p = ParsePagination(req)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PerPage)
	assert.Equal(t, 0, p.Offset())

	req = httptest.NewRequest("GET", "/api/v1/appointments?page=-2&per_page=9999", nil)
	p = ParsePagination(req)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)
}
