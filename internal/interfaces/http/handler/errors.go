package handler

import (
	"errors"
	"net/http"

	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/service"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/logger"
)

// ErrorResponse - тело ответа с ошибкой
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// StatusFor переводит ошибку движка бронирований в HTTP статус
func StatusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrOverlap):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOutOfHours):
		return http.StatusUnprocessableEntity
	case errors.Is(err, valueobject.ErrInvalidRange),
		errors.Is(err, valueobject.ErrInvalidClockTime),
		errors.Is(err, valueobject.ErrInvalidDate),
		errors.Is(err, entity.ErrEmptyOwner),
		errors.Is(err, entity.ErrMissingDate):
		return http.StatusBadRequest
	case usecase.IsCancellation(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorBody формирует тело ответа; внутренние ошибки не раскрываются клиенту
func errorBody(err error, status int) ErrorResponse {
	switch status {
	case http.StatusInternalServerError:
		return ErrorResponse{Error: "Internal server error"}
	case http.StatusServiceUnavailable:
		return ErrorResponse{Error: "Request cancelled"}
	}

	body := ErrorResponse{Error: err.Error()}
	var hoursErr *service.OutOfHoursError
	if errors.As(err, &hoursErr) {
		body.Reason = string(hoursErr.Kind)
	}
	return body
}

func writeError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("Request failed", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r),
		)
	}
	middleware.WriteJSON(w, status, errorBody(err, status))
}
