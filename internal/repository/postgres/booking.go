package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/agendafacil/booking-api/internal/model"
	apperr "github.com/agendafacil/booking-api/pkg/errors"
)

// uniqueViolation is the Postgres error code raised by the partial
// unique index over active (service_id, date, time) rows.
const uniqueViolation = "23505"

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, customer_name, user_id, service_id, date, "time",
			note, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerName,
		booking.UserID,
		booking.ServiceID,
		booking.Date,
		booking.Time,
		booking.Note,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperr.TimeConflict()
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, customer_name, user_id, service_id, date, "time",
			   note, status, cancelled_at, cancelled_by, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, note = $2, cancelled_at = $3, cancelled_by = $4, updated_at = $5
		WHERE id = $6
	`
	booking.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		booking.Status,
		booking.Note,
		booking.CancelledAt,
		booking.CancelledBy,
		booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("booking")
	}
	return nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID, includeCancelled bool) ([]*model.Booking, error) {
	query := `
		SELECT id, customer_name, user_id, service_id, date, "time",
			   note, status, cancelled_at, cancelled_by, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
	`
	if !includeCancelled {
		query += ` AND status <> 'cancelled'`
	}
	query += ` ORDER BY date DESC, "time" DESC`

	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListAll(ctx context.Context) ([]*model.Booking, error) {
	query := `
		SELECT id, customer_name, user_id, service_id, date, "time",
			   note, status, cancelled_at, cancelled_by, created_at, updated_at
		FROM bookings
		ORDER BY created_at DESC
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// ListRange returns non-cancelled bookings for a service with
// fromDate <= date < toDate. ISO dates compare correctly as strings.
func (r *bookingRepository) ListRange(ctx context.Context, serviceID uuid.UUID, fromDate, toDate string) ([]*model.Booking, error) {
	query := `
		SELECT id, customer_name, user_id, service_id, date, "time",
			   note, status, cancelled_at, cancelled_by, created_at, updated_at
		FROM bookings
		WHERE service_id = $1
		AND date >= $2 AND date < $3
		AND status <> 'cancelled'
		ORDER BY date ASC, "time" ASC
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, serviceID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings in range: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) BookedTimes(ctx context.Context, serviceID uuid.UUID, date string) ([]string, error) {
	query := `
		SELECT "time"
		FROM bookings
		WHERE service_id = $1 AND date = $2 AND status <> 'cancelled'
		ORDER BY "time" ASC
	`
	var times []string
	err := r.db.SelectContext(ctx, &times, query, serviceID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	return times, nil
}

func (r *bookingRepository) CountActiveByService(ctx context.Context, serviceID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE service_id = $1 AND status <> 'cancelled'
	`
	var count int
	err := r.db.GetContext(ctx, &count, query, serviceID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}
