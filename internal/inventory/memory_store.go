package inventory

import (
	"context"
	"sync"
	"time"

	"go-airline-booking/internal/model"
	apperrors "go-airline-booking/pkg/app_errors"
)

// MemoryStore 以 map 實作的 Store。所有讀寫都以深拷貝進出，
// 呼叫端永遠拿不到內部共享的指標。
type MemoryStore struct {
	mu      sync.RWMutex
	flights map[string]*model.Flight
	locks   map[string]*model.SeatLock // keyed by flightID/seatNumber
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights: make(map[string]*model.Flight),
		locks:   make(map[string]*model.SeatLock),
	}
}

func lockKey(flightID, seatNumber string) string {
	return flightID + "/" + seatNumber
}

func (s *MemoryStore) LoadFlight(ctx context.Context, flightID string) (*model.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flight, ok := s.flights[flightID]
	if !ok {
		return nil, apperrors.ErrFlightNotFound
	}
	return flight.Clone(), nil
}

func (s *MemoryStore) SaveFlight(ctx context.Context, flight *model.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flights[flight.ID] = flight.Clone()
	return nil
}

func (s *MemoryStore) ListActiveFlightIDs(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.flights))
	for id, flight := range s.flights {
		if flight.DepartureTime.After(now) && flight.Status != model.FlightStatusCancelled {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *MemoryStore) SearchFlights(ctx context.Context, origin, destination string, from, to time.Time) ([]*model.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flights := make([]*model.Flight, 0)
	for _, flight := range s.flights {
		if flight.OriginAirportID != origin || flight.DestinationAirportID != destination {
			continue
		}
		if flight.DepartureTime.Before(from) || flight.DepartureTime.After(to) {
			continue
		}
		flights = append(flights, flight.Clone())
	}
	return flights, nil
}

func (s *MemoryStore) LoadLock(ctx context.Context, flightID, seatNumber string) (*model.SeatLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lock, ok := s.locks[lockKey(flightID, seatNumber)]
	if !ok {
		return nil, apperrors.ErrLockNotOwned
	}
	cp := *lock
	return &cp, nil
}

func (s *MemoryStore) SaveLock(ctx context.Context, lock *model.SeatLock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *lock
	s.locks[lock.Key()] = &cp
	return nil
}

func (s *MemoryStore) DeleteLock(ctx context.Context, flightID, seatNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, lockKey(flightID, seatNumber))
	return nil
}

func (s *MemoryStore) ListLocksExpiringBefore(ctx context.Context, t time.Time) ([]*model.SeatLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]*model.SeatLock, 0)
	for _, lock := range s.locks {
		if !lock.ExpiresAt.After(t) {
			cp := *lock
			expired = append(expired, &cp)
		}
	}
	return expired, nil
}
