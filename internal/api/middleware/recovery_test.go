package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitromap/nitromap/internal/api/middleware"
	"github.com/nitromap/nitromap/internal/api/models"
)

func TestRecovery(t *testing.T) {
	var logs bytes.Buffer
	handler := middleware.RequestID(middleware.Recovery(zerolog.New(&logs))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/totals", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var p models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, models.ProblemTypeInternal, p.Type)
	assert.Equal(t, "/totals", p.Instance)
	assert.Contains(t, p.TraceID, "req_")
	assert.Contains(t, logs.String(), `"message":"panic recovered"`)
}
