package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"isuku-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondAppError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperr.Validation("invalid_request", "Validation failed").WithFields(map[string]string{"name": "This field is required."})

	RespondAppError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "invalid_request", body["code"])
	assert.Equal(t, map[string]interface{}{"name": "This field is required."}, body["errors"])
}

func TestRespondAppError_HidesInternal(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondAppError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	assert.Equal(t, "Internal server error", decodeBody(t, rec)["error"])
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Kacyiru"}`))
	require.NoError(t, DecodeJSON(req, &dst))
	assert.Equal(t, "Kacyiru", dst.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	err := DecodeJSON(req, &dst)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	assert.NoError(t, DecodeJSON(req, &dst))
}
