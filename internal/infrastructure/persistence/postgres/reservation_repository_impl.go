package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Pottifar/calendar/internal/domain/entity"
	"github.com/Pottifar/calendar/internal/domain/repository"
	"github.com/Pottifar/calendar/internal/domain/valueobject"
)

// SQLSTATE коды PostgreSQL
const (
	exclusionViolation        = "23P01"
	invalidTextRepresentation = "22P02"
)

const reservationColumns = `id, owner, booking_date, to_char(start_time, 'HH24:MI:SS'), to_char(end_time, 'HH24:MI:SS'), created_at, updated_at`

// PostgresReservationRepository реализует repository.ReservationRepository для PostgreSQL.
// Ограничение reservations_no_overlap - последний рубеж против пересечений.
type PostgresReservationRepository struct {
	db *sql.DB
}

// NewPostgresReservationRepository создает новый PostgreSQL repository
func NewPostgresReservationRepository(db *sql.DB) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		db: db,
	}
}

// ListActive возвращает бронирования на дату по возрастанию начала
func (r *PostgresReservationRepository) ListActive(ctx context.Context, date valueobject.CalendarDay) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE booking_date = $1
		ORDER BY start_time ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, date.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations by date: %w", err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// ListByOwner возвращает бронирования владельца по (дата, начало)
func (r *PostgresReservationRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE owner = $1
		ORDER BY booking_date ASC, start_time ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query reservations by owner: %w", err)
	}
	defer rows.Close()

	return r.scanReservations(rows)
}

// FindByID находит бронирование по идентификатору
func (r *PostgresReservationRepository) FindByID(ctx context.Context, id string) (*entity.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1
	`

	model, err := ScanReservationRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}

	return ToEntity(model)
}

// Insert сохраняет бронирование, идентификатор генерируется здесь
func (r *PostgresReservationRepository) Insert(ctx context.Context, reservation *entity.Reservation) (*entity.Reservation, error) {
	model := ToDBModel(reservation.WithID(uuid.New().String()))

	query := `
		INSERT INTO reservations (id, owner, booking_date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reservationColumns

	stored, err := ScanReservationRow(r.db.QueryRowContext(ctx, query,
		model.ID,
		model.Owner,
		model.BookingDate.Format("2006-01-02"),
		model.StartTime,
		model.EndTime,
	))
	if err != nil {
		if isPQCode(err, exclusionViolation) {
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("failed to insert reservation: %w", err)
	}

	return ToEntity(stored)
}

// ReplaceRange заменяет интервал одним UPDATE
func (r *PostgresReservationRepository) ReplaceRange(
	ctx context.Context,
	id string,
	timeRange valueobject.TimeRange,
) (*entity.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}

	query := `
		UPDATE reservations
		SET start_time = $2, end_time = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + reservationColumns

	stored, err := ScanReservationRow(r.db.QueryRowContext(ctx, query,
		id,
		timeRange.Start().StringWithSeconds(),
		timeRange.End().StringWithSeconds(),
	))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows), isPQCode(err, invalidTextRepresentation):
			return nil, repository.ErrNotFound
		case isPQCode(err, exclusionViolation):
			return nil, repository.ErrConflict
		}
		return nil, fmt.Errorf("failed to update reservation: %w", err)
	}

	return ToEntity(stored)
}

// Remove удаляет бронирование, false если строки не было
func (r *PostgresReservationRepository) Remove(ctx context.Context, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete reservation: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

// Ping проверяет соединение с БД
func (r *PostgresReservationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *PostgresReservationRepository) scanReservations(rows *sql.Rows) ([]*entity.Reservation, error) {
	reservations := make([]*entity.Reservation, 0)

	for rows.Next() {
		model, err := ScanReservationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}

		reservation, err := ToEntity(model)
		if err != nil {
			return nil, err
		}

		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return reservations, nil
}

func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
