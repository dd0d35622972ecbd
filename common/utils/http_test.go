package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

func TestWriteValidationError(t *testing.T) {
	type params struct {
		Query string `validate:"required"`
		Limit int    `validate:"max=200"`
	}
	err := validator.New().Struct(params{Limit: 500})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bad Request", resp.Error)
	assert.Equal(t, "Query: required; Limit: max=200", resp.Msg)

	rec = httptest.NewRecorder()
	WriteValidationError(rec, errors.New("boom"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "boom", resp.Msg)
}

func TestWritePagination(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePagination(rec, http.StatusOK, []string{"a", "b"}, 2, 10, 25)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp struct {
		Data []string            `json:"data"`
		Meta models.MetaResponse `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	assert.Equal(t, models.MetaResponse{CurrentPage: 2, LastPage: 3, PerPage: 10, Total: 25}, resp.Meta)
}

func TestWriteMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteMessage(rec, http.StatusAccepted, "stopping")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"data":{"message":"stopping"}}`, rec.Body.String())
}
