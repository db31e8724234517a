package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Pottifar/calendar/internal/application/usecase"
	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
	"github.com/Pottifar/calendar/internal/interfaces/http/middleware"
	"github.com/Pottifar/calendar/pkg/logger"
)

const (
	legacyMissingData = "Missing required data."
	legacyOverlap     = "time overlap"
)

// LegacyBookingRow - строка бронирования в формате существующего календарного клиента
type LegacyBookingRow struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// LegacyMessage - ответ мутаций старого API
type LegacyMessage struct {
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

type legacyCreateRequest struct {
	Name      string `json:"name"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type legacyUpdateRequest struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// LegacyBookingHandler обслуживает маршруты /api/*Booking* календарного фронтенда.
// Пересечение отдается как 200 {"message":"time overlap"}, как ждет клиент.
type LegacyBookingHandler struct {
	engine *usecase.SchedulingEngine
	logger *logger.Logger
}

// NewLegacyBookingHandler создает новый handler
func NewLegacyBookingHandler(engine *usecase.SchedulingEngine, logger *logger.Logger) *LegacyBookingHandler {
	return &LegacyBookingHandler{
		engine: engine,
		logger: logger,
	}
}

// CreateBooking - POST /api/createBooking
func (h *LegacyBookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req legacyCreateRequest
	if !decodeJSON(w, r, &req, legacyMissingData) {
		return
	}

	if strings.TrimSpace(req.Name) == "" || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: legacyMissingData})
		return
	}

	date, err := valueobject.ParseCalendarDay(req.Date)
	if err != nil {
		h.writeError(w, r, err, "creating")
		return
	}

	timeRange, err := valueobject.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		h.writeError(w, r, err, "creating")
		return
	}

	reservation, err := h.engine.Create(r.Context(), req.Name, date, timeRange)
	if err != nil {
		h.writeError(w, r, err, "creating")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, LegacyMessage{Message: "Booking created successfully!", ID: reservation.ID()})
}

// UpdateBooking - PATCH /api/updateBooking/{id}
func (h *LegacyBookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	var req legacyUpdateRequest
	if !decodeJSON(w, r, &req, legacyMissingData) {
		return
	}

	if req.StartTime == "" || req.EndTime == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: legacyMissingData})
		return
	}

	timeRange, err := valueobject.ParseTimeRange(req.StartTime, req.EndTime)
	if err != nil {
		h.writeError(w, r, err, "updating")
		return
	}

	if _, err := h.engine.Update(r.Context(), r.PathValue("id"), timeRange); err != nil {
		h.writeError(w, r, err, "updating")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, LegacyMessage{Message: "Booking updated successfully!"})
}

// DeleteBooking - DELETE /api/deleteBooking/{id}
func (h *LegacyBookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err, "deleting")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, LegacyMessage{Message: "Booking deleted successfully!"})
}

// GetBookingsByDate - GET /api/getBookingsByDate?date=YYYY-MM-DD
func (h *LegacyBookingHandler) GetBookingsByDate(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: legacyMissingData})
		return
	}

	date, err := valueobject.ParseCalendarDay(raw)
	if err != nil {
		h.writeError(w, r, err, "fetching")
		return
	}

	reservations, err := h.engine.ListByDate(r.Context(), date)
	if err != nil {
		h.writeError(w, r, err, "fetching")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toLegacyRows(reservations))
}

// GetBookingForUser - GET /api/getBookingForUser?name=
func (h *LegacyBookingHandler) GetBookingForUser(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: legacyMissingData})
		return
	}

	reservations, err := h.engine.ListByOwner(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err, "fetching")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, toLegacyRows(reservations))
}

func (h *LegacyBookingHandler) writeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, usecase.ErrOverlap) {
		middleware.WriteJSON(w, http.StatusOK, LegacyMessage{Message: legacyOverlap})
		return
	}

	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Legacy booking request failed", err,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r),
		)
		middleware.WriteJSON(w, status, ErrorResponse{Error: "An error occurred while " + action + " the booking."})
		return
	}

	middleware.WriteJSON(w, status, errorBody(err, status))
}

func toLegacyRows(reservations []*entity.Reservation) []LegacyBookingRow {
	rows := make([]LegacyBookingRow, 0, len(reservations))
	for _, r := range reservations {
		rows = append(rows, LegacyBookingRow{
			ID:        r.ID(),
			UserName:  r.Owner(),
			Date:      r.Date().String(),
			StartTime: r.TimeRange().Start().StringWithSeconds(),
			EndTime:   r.TimeRange().End().StringWithSeconds(),
		})
	}
	return rows
}
