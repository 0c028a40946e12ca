package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/model"
	apperrors "go-airline-booking/pkg/app_errors"
)

// InventoryRepositoryImpl 以 PostgreSQL 實作 inventory.Store。
// 座位清單以 JSONB 存在 flights 資料列上；鎖定表獨立為 seat_locks，
// 主鍵 (flight_id, seat_number) 保證同一座位最多一筆鎖。
type InventoryRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) inventory.Store {
	return &InventoryRepositoryImpl{pool: pool}
}

func (r *InventoryRepositoryImpl) LoadFlight(ctx context.Context, flightID string) (*model.Flight, error) {
	query := `
		SELECT id, flight_number, airline, origin_airport_id, destination_airport_id,
			departure_time, arrival_time, duration_minutes, base_price,
			available_seats, total_seats, status, seats, created_at, updated_at
		FROM flights
		WHERE id = $1
	`

	var flight model.Flight
	var seatsJSON []byte
	err := r.pool.QueryRow(ctx, query, flightID).Scan(
		&flight.ID,
		&flight.FlightNumber,
		&flight.Airline,
		&flight.OriginAirportID,
		&flight.DestinationAirportID,
		&flight.DepartureTime,
		&flight.ArrivalTime,
		&flight.DurationMinutes,
		&flight.BasePrice,
		&flight.AvailableSeats,
		&flight.TotalSeats,
		&flight.Status,
		&seatsJSON,
		&flight.CreatedAt,
		&flight.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load flight: %w", err)
	}

	if err := json.Unmarshal(seatsJSON, &flight.Seats); err != nil {
		return nil, fmt.Errorf("unmarshal seats: %w", err)
	}
	return &flight, nil
}

func (r *InventoryRepositoryImpl) SaveFlight(ctx context.Context, flight *model.Flight) error {
	seatsJSON, err := json.Marshal(flight.Seats)
	if err != nil {
		return fmt.Errorf("marshal seats: %w", err)
	}

	query := `
		UPDATE flights
		SET status = $2, available_seats = $3, seats = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		flight.ID, flight.Status, flight.AvailableSeats, seatsJSON, flight.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save flight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrFlightNotFound
	}
	return nil
}

func (r *InventoryRepositoryImpl) ListActiveFlightIDs(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT id FROM flights
		WHERE departure_time > $1 AND status != $2
		ORDER BY departure_time
	`
	rows, err := r.pool.Query(ctx, query, now, model.FlightStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("list active flights: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *InventoryRepositoryImpl) SearchFlights(ctx context.Context, origin, destination string, from, to time.Time) ([]*model.Flight, error) {
	query := `
		SELECT id, flight_number, airline, origin_airport_id, destination_airport_id,
			departure_time, arrival_time, duration_minutes, base_price,
			available_seats, total_seats, status, seats, created_at, updated_at
		FROM flights
		WHERE origin_airport_id = $1 AND destination_airport_id = $2
			AND departure_time BETWEEN $3 AND $4
	`
	rows, err := r.pool.Query(ctx, query, origin, destination, from, to)
	if err != nil {
		return nil, fmt.Errorf("search flights: %w", err)
	}
	defer rows.Close()

	flights := make([]*model.Flight, 0)
	for rows.Next() {
		var flight model.Flight
		var seatsJSON []byte
		err := rows.Scan(
			&flight.ID,
			&flight.FlightNumber,
			&flight.Airline,
			&flight.OriginAirportID,
			&flight.DestinationAirportID,
			&flight.DepartureTime,
			&flight.ArrivalTime,
			&flight.DurationMinutes,
			&flight.BasePrice,
			&flight.AvailableSeats,
			&flight.TotalSeats,
			&flight.Status,
			&seatsJSON,
			&flight.CreatedAt,
			&flight.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(seatsJSON, &flight.Seats); err != nil {
			return nil, fmt.Errorf("unmarshal seats: %w", err)
		}
		flights = append(flights, &flight)
	}
	return flights, rows.Err()
}

func (r *InventoryRepositoryImpl) LoadLock(ctx context.Context, flightID, seatNumber string) (*model.SeatLock, error) {
	query := `
		SELECT flight_id, seat_number, user_id, locked_at, expires_at
		FROM seat_locks
		WHERE flight_id = $1 AND seat_number = $2
	`

	var lock model.SeatLock
	err := r.pool.QueryRow(ctx, query, flightID, seatNumber).Scan(
		&lock.FlightID,
		&lock.SeatNumber,
		&lock.UserID,
		&lock.LockedAt,
		&lock.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrLockNotOwned
	}
	if err != nil {
		return nil, fmt.Errorf("load seat lock: %w", err)
	}
	return &lock, nil
}

func (r *InventoryRepositoryImpl) SaveLock(ctx context.Context, lock *model.SeatLock) error {
	query := `
		INSERT INTO seat_locks (flight_id, seat_number, user_id, locked_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (flight_id, seat_number)
		DO UPDATE SET user_id = $3, locked_at = $4, expires_at = $5
	`
	_, err := r.pool.Exec(ctx, query,
		lock.FlightID, lock.SeatNumber, lock.UserID, lock.LockedAt, lock.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("save seat lock: %w", err)
	}
	return nil
}

func (r *InventoryRepositoryImpl) DeleteLock(ctx context.Context, flightID, seatNumber string) error {
	query := `DELETE FROM seat_locks WHERE flight_id = $1 AND seat_number = $2`
	_, err := r.pool.Exec(ctx, query, flightID, seatNumber)
	if err != nil {
		return fmt.Errorf("delete seat lock: %w", err)
	}
	return nil
}

func (r *InventoryRepositoryImpl) ListLocksExpiringBefore(ctx context.Context, t time.Time) ([]*model.SeatLock, error) {
	query := `
		SELECT flight_id, seat_number, user_id, locked_at, expires_at
		FROM seat_locks
		WHERE expires_at <= $1
	`
	rows, err := r.pool.Query(ctx, query, t)
	if err != nil {
		return nil, fmt.Errorf("list expired locks: %w", err)
	}
	defer rows.Close()

	locks := make([]*model.SeatLock, 0)
	for rows.Next() {
		var lock model.SeatLock
		err := rows.Scan(
			&lock.FlightID,
			&lock.SeatNumber,
			&lock.UserID,
			&lock.LockedAt,
			&lock.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		locks = append(locks, &lock)
	}
	return locks, rows.Err()
}
