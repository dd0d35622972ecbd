package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

func write(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Int("status", statusCode).Msg("Failed to write response")
	}
}

// WriteJSON wraps data in the {"data": ...} envelope
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, models.BaseResponse{Data: data})
}

// WriteMessage answers with {"data": {"message": message}}
func WriteMessage(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, models.BaseResponse{Data: map[string]string{"message": message}})
}

func WriteError(w http.ResponseWriter, statusCode int, errorMessage string) {
	write(w, statusCode, models.ErrorResponse{
		Error: http.StatusText(statusCode),
		Msg:   errorMessage,
	})
}

// WriteValidationError answers 400 with one "field: rule" entry per failed
// validation, or the error text when err is not a validation error.
func WriteValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	WriteError(w, http.StatusBadRequest, strings.Join(msgs, "; "))
}

// WritePagination adds page metadata next to the data
func WritePagination(w http.ResponseWriter, statusCode int, data interface{}, currentPage, perPage int, total int64) {
	write(w, statusCode, models.BasePaginationResponse{
		Data: data,
		Meta: models.MetaResponse{
			CurrentPage: int64(currentPage),
			LastPage:    int64(math.Ceil(float64(total) / float64(perPage))),
			PerPage:     int64(perPage),
			Total:       total,
		},
	})
}
