package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepulse/src/apperr"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestFailMapsTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apperr.Code
	}{
		{"unauthorized", apperr.Unauthorized("not your pulse"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"not found", apperr.NotFound("pulse not found"), http.StatusNotFound, apperr.CodeNotFound},
		{"validation", apperr.Validation("bad input"), http.StatusBadRequest, apperr.CodeValidation},
		{"duplicate", apperr.Duplicate("exists"), http.StatusConflict, apperr.CodeDuplicate},
		{"rate limit", apperr.RateLimited("slow down"), http.StatusTooManyRequests, apperr.CodeRateLimit},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, apperr.CodeServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Fail(rr, tt.err)

			assert.Equal(t, tt.status, rr.Code)
			env := decode(t, rr)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestFailKeepsOriginalMessageInDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Fail(rr, errors.New("pq: relation \"pulses\" does not exist"))

	env := decode(t, rr)
	require.NotNil(t, env.Error)
	assert.Equal(t, `pq: relation "pulses" does not exist`, env.Error.Details)
}

func TestOKPage(t *testing.T) {
	rr := httptest.NewRecorder()
	OKPage(rr, []string{"a", "b"}, NewPagination(2, 2, 5))

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decode(t, rr)
	assert.True(t, env.Success)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.Equal(t, int64(5), env.Pagination.Total)
}

func TestNewPaginationZeroPageSize(t *testing.T) {
	p := NewPagination(1, 0, 10)
	assert.Equal(t, 0, p.TotalPages)
}
