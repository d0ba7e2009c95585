package json

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteUnauthorized(rec)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Unauthorized","message":"unauthorized"}`, rec.Body.String())
}

func TestWriteRateLimitError(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteRateLimitError(rec, 2)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too Many Requests")
}
