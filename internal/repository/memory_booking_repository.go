package repository

import (
	"context"
	"sort"
	"sync"

	"go-airline-booking/internal/model"
	apperrors "go-airline-booking/pkg/app_errors"
)

// MemoryBookingRepository 以 map 實作的 BookingRepository，
// 與 inventory.MemoryStore 搭配供測試與單機部署使用。
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*model.Booking
	byPNR    map[string]string // pnr -> booking id
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings: make(map[string]*model.Booking),
		byPNR:    make(map[string]string),
	}
}

func cloneBooking(b *model.Booking) *model.Booking {
	cp := *b
	cp.SeatNumbers = append([]string(nil), b.SeatNumbers...)
	cp.Passengers = append([]model.Passenger(nil), b.Passengers...)
	return &cp
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bookings[booking.ID] = cloneBooking(booking)
	r.byPNR[booking.PNR] = booking.ID
	return booking, nil
}

func (r *MemoryBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return cloneBooking(booking), nil
}

func (r *MemoryBookingRepository) FindByPNR(ctx context.Context, pnr string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPNR[pnr]
	if !ok {
		return nil, apperrors.ErrBookingNotFound
	}
	return cloneBooking(r.bookings[id]), nil
}

func (r *MemoryBookingRepository) list(filter func(*model.Booking) bool) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Booking, 0)
	for _, booking := range r.bookings {
		if filter(booking) {
			out = append(out, cloneBooking(booking))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *MemoryBookingRepository) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return r.list(func(b *model.Booking) bool { return b.UserID == userID }), nil
}

func (r *MemoryBookingRepository) ListByFlight(ctx context.Context, flightID string) ([]*model.Booking, error) {
	return r.list(func(b *model.Booking) bool { return b.FlightID == flightID }), nil
}

func (r *MemoryBookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.bookings[booking.ID]; !ok {
		return apperrors.ErrBookingNotFound
	}
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *MemoryBookingRepository) PNRExists(ctx context.Context, pnr string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byPNR[pnr]
	return ok, nil
}
