package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Pottifar/calendar/internal/application/dto"
	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/logger"
)

const maxRequestBody = 1 << 20

// CreateReservationRequest - тело POST /api/v1/reservations
type CreateReservationRequest struct {
	Owner     string `json:"owner"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// UpdateReservationRequest - тело PATCH /api/v1/reservations/{id}
type UpdateReservationRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ReservationAPIHandler обрабатывает версионированный REST API бронирований
type ReservationAPIHandler struct {
	engine *usecase.SchedulingEngine
	logger *logger.Logger
}

// NewReservationAPIHandler создает новый handler
func NewReservationAPIHandler(engine *usecase.SchedulingEngine, logger *logger.Logger) *ReservationAPIHandler {
	return &ReservationAPIHandler{
		engine: engine,
		logger: logger,
	}
}

// Create создает бронирование: 201 с бронированием, 409 при пересечении
func (h *ReservationAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if !decodeJSON(w, r, &req, "invalid JSON body") {
		return
	}

	date, err := valueobject.ParseCalendarDay(req.Date)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	timeRange, err := valueobject.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	reservation, err := h.engine.Create(r.Context(), req.Owner, date, timeRange)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", "/api/v1/reservations/"+reservation.ID())
	middleware.WriteJSON(w, http.StatusCreated, dto.FromEntity(reservation))
}

// Update меняет интервал бронирования
func (h *ReservationAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateReservationRequest
	if !decodeJSON(w, r, &req, "invalid JSON body") {
		return
	}

	timeRange, err := valueobject.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	reservation, err := h.engine.Update(r.Context(), r.PathValue("id"), timeRange)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.FromEntity(reservation))
}

// Delete удаляет бронирование; повторное удаление тоже 204
func (h *ReservationAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List возвращает бронирования по ?date=YYYY-MM-DD или по ?owner=name
func (h *ReservationAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	dateParam := strings.TrimSpace(r.URL.Query().Get("date"))
	ownerParam := strings.TrimSpace(r.URL.Query().Get("owner"))

	if (dateParam == "") == (ownerParam == "") {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: "exactly one of date, owner is required"})
		return
	}

	var (
		reservations []*entity.Reservation
		err          error
	)
	if dateParam != "" {
		var date valueobject.CalendarDay
		date, err = valueobject.ParseCalendarDay(dateParam)
		if err == nil {
			reservations, err = h.engine.ListByDate(r.Context(), date)
		}
	} else {
		reservations, err = h.engine.ListByOwner(r.Context(), ownerParam)
	}
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.ToReservationDTOs(reservations))
}

// decodeJSON читает тело запроса; при ошибке сам отвечает 400
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: message})
		return false
	}
	return true
}
