package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-airline-booking/internal/model"
	apperrors "go-airline-booking/pkg/app_errors"
)

// BookingRepository 訂位儲存介面
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByPNR(ctx context.Context, pnr string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
	ListByFlight(ctx context.Context, flightID string) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	// PNRExists 檢查 PNR 是否已被任何訂位（含 Pending）使用
	PNRExists(ctx context.Context, pnr string) (bool, error)
}

type BookingRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &BookingRepositoryImpl{pool: pool}
}

const bookingColumns = `id, pnr, user_id, flight_id, seat_numbers, passengers,
	total_price, payment_ref, status, created_at, updated_at`

func (r *BookingRepositoryImpl) scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	var seatsJSON, passengersJSON []byte
	err := row.Scan(
		&booking.ID,
		&booking.PNR,
		&booking.UserID,
		&booking.FlightID,
		&seatsJSON,
		&passengersJSON,
		&booking.TotalPrice,
		&booking.PaymentRef,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(seatsJSON, &booking.SeatNumbers); err != nil {
		return nil, fmt.Errorf("unmarshal seat numbers: %w", err)
	}
	if err := json.Unmarshal(passengersJSON, &booking.Passengers); err != nil {
		return nil, fmt.Errorf("unmarshal passengers: %w", err)
	}
	return &booking, nil
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	seatsJSON, err := json.Marshal(booking.SeatNumbers)
	if err != nil {
		return nil, fmt.Errorf("marshal seat numbers: %w", err)
	}
	passengersJSON, err := json.Marshal(booking.Passengers)
	if err != nil {
		return nil, fmt.Errorf("marshal passengers: %w", err)
	}

	query := `
		INSERT INTO bookings (
			id, pnr, user_id, flight_id, seat_numbers, passengers,
			total_price, payment_ref, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.pool.Exec(ctx, query,
		booking.ID, booking.PNR, booking.UserID, booking.FlightID,
		seatsJSON, passengersJSON, booking.TotalPrice, booking.PaymentRef,
		booking.Status, booking.CreatedAt, booking.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	return r.scanBooking(r.pool.QueryRow(ctx, query, id))
}

func (r *BookingRepositoryImpl) FindByPNR(ctx context.Context, pnr string) (*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE pnr = $1`, bookingColumns)
	return r.scanBooking(r.pool.QueryRow(ctx, query, pnr))
}

func (r *BookingRepositoryImpl) listBy(ctx context.Context, query string, arg interface{}) ([]*model.Booking, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := make([]*model.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func (r *BookingRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`, bookingColumns)
	return r.listBy(ctx, query, userID)
}

func (r *BookingRepositoryImpl) ListByFlight(ctx context.Context, flightID string) ([]*model.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE flight_id = $1 ORDER BY created_at DESC`, bookingColumns)
	return r.listBy(ctx, query, flightID)
}

func (r *BookingRepositoryImpl) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET payment_ref = $2, status = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		booking.ID, booking.PaymentRef, booking.Status, booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrBookingNotFound
	}
	return nil
}

func (r *BookingRepositoryImpl) PNRExists(ctx context.Context, pnr string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE pnr = $1)`, pnr,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pnr: %w", err)
	}
	return exists, nil
}
