package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	"go-airline-booking/internal/queue"
	"go-airline-booking/internal/repository"
	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/logger"
	"go-airline-booking/pkg/pnr"
)

// pnrMaxAttempts PNR 碰撞時的重試上限
const pnrMaxAttempts = 5

type BookingService interface {
	// Create 在結帳開始時建立 Pending 訂位並產生全域唯一 PNR
	Create(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	// Confirm 付款成功後確認訂位。重新驗證每個座位的鎖仍由訂位者持有且未過期，
	// 全部通過才落座，任何一席失敗則完全不變更（all-or-nothing）。
	Confirm(ctx context.Context, bookingID, paymentRef string) (*model.Booking, error)
	// Cancel 取消訂位。座位釋放屬協作方流程，不在此處理。
	Cancel(ctx context.Context, bookingID string) (*model.Booking, error)
	GetByID(ctx context.Context, bookingID string) (*model.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Booking, error)
}

type BookingServiceImpl struct {
	store    inventory.Store
	bookings repository.BookingRepository
	keys     *lock.KeyedMutex
	notifier notifier.Notifier
	queue    queue.BookingQueue
	clock    clock.Clock
	pnrGen   *pnr.Generator
	seatMaps lock.SeatMapInvalidator // 可為 nil
	log      *zap.Logger
}

func NewBookingService(
	store inventory.Store,
	bookings repository.BookingRepository,
	keys *lock.KeyedMutex,
	n notifier.Notifier,
	q queue.BookingQueue,
	clk clock.Clock,
	pnrGen *pnr.Generator,
	seatMaps lock.SeatMapInvalidator,
) BookingService {
	return &BookingServiceImpl{
		store:    store,
		bookings: bookings,
		keys:     keys,
		notifier: n,
		queue:    q,
		clock:    clk,
		pnrGen:   pnrGen,
		seatMaps: seatMaps,
		log:      logger.WithComponent("booking_service"),
	}
}

func (s *BookingServiceImpl) Create(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error) {
	flight, err := s.store.LoadFlight(ctx, req.FlightID)
	if err != nil {
		return nil, err
	}

	total := 0.0
	for _, seatNumber := range req.SeatNumbers {
		seat := flight.Seat(seatNumber)
		if seat == nil {
			return nil, apperrors.ErrSeatNotFound
		}
		price := seat.CurrentPrice
		if price <= 0 {
			price = seat.BasePrice
		}
		total += price
	}

	code, err := s.uniquePNR(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	booking := &model.Booking{
		ID:          uuid.New().String(),
		PNR:         code,
		UserID:      req.UserID,
		FlightID:    req.FlightID,
		SeatNumbers: req.SeatNumbers,
		Passengers:  req.Passengers,
		TotalPrice:  total,
		Status:      model.BookingStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	return s.bookings.Create(ctx, booking)
}

// uniquePNR 產生未被使用的 PNR，碰撞時重試。
func (s *BookingServiceImpl) uniquePNR(ctx context.Context) (string, error) {
	for i := 0; i < pnrMaxAttempts; i++ {
		code, err := s.pnrGen.Generate()
		if err != nil {
			return "", fmt.Errorf("generate pnr: %w", err)
		}
		exists, err := s.bookings.PNRExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperrors.ErrPNRGeneration
}

func (s *BookingServiceImpl) Confirm(ctx context.Context, bookingID, paymentRef string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingStatusPending {
		return nil, apperrors.ErrInvalidBookingStatus
	}

	// 取得所有座位鍵（排序後取得，避免與其他批次互鎖）
	keys := make([]string, 0, len(booking.SeatNumbers))
	for _, seatNumber := range booking.SeatNumbers {
		keys = append(keys, lock.Key(booking.FlightID, seatNumber))
	}
	unlock := s.keys.LockAll(keys)
	defer unlock()

	flight, err := s.store.LoadFlight(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	// 先全部驗證再變更：不能信任 acquire 當下的結果，時間已經過去。
	now := s.clock.Now()
	for _, seatNumber := range booking.SeatNumbers {
		seat := flight.Seat(seatNumber)
		if seat == nil {
			return nil, apperrors.ErrSeatNotFound
		}
		seatLock, err := s.store.LoadLock(ctx, booking.FlightID, seatNumber)
		if err != nil {
			// 鎖已不存在：座位回到 Available 代表鎖已過期被回收；
			// 否則是被其他人重新競得或已售出。
			if seat.Status == model.SeatStatusAvailable {
				return nil, apperrors.ErrLockExpired
			}
			return nil, apperrors.ErrLockNotOwned
		}
		if seatLock.UserID != booking.UserID {
			return nil, apperrors.ErrLockNotOwned
		}
		if seatLock.IsExpired(now) {
			return nil, apperrors.ErrLockExpired
		}
	}

	// 航班以單一資料列整列寫回，必須以航班鍵序列化重讀加寫回，
	// 否則會覆蓋其他座位上平行進行的狀態變更與 AvailableSeats 遞減。
	flight, err = s.bookSeats(ctx, booking)
	if err != nil {
		return nil, fmt.Errorf("save flight: %w", err)
	}

	booking.Status = model.BookingStatusConfirmed
	booking.PaymentRef = paymentRef
	booking.UpdatedAt = now
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}

	for _, seatNumber := range booking.SeatNumbers {
		if err := s.store.DeleteLock(ctx, booking.FlightID, seatNumber); err != nil {
			s.log.Error("delete seat lock after confirm failed",
				zap.String("flight_id", booking.FlightID),
				zap.String("seat_number", seatNumber),
				zap.Error(err))
		}
	}

	s.invalidateSeatMap(ctx, booking.FlightID)
	s.publishConfirmed(ctx, booking, flight)
	return booking, nil
}

// bookSeats 在航班鍵下重讀航班，把訂位的座位全部轉為 Booked 並遞減
// AvailableSeats 後整列寫回。呼叫端必須已持有所有座位鍵。
func (s *BookingServiceImpl) bookSeats(ctx context.Context, booking *model.Booking) (*model.Flight, error) {
	flightKey := lock.FlightKey(booking.FlightID)
	s.keys.Lock(flightKey)
	defer s.keys.Unlock(flightKey)

	flight, err := s.store.LoadFlight(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	for _, seatNumber := range booking.SeatNumbers {
		flight.Seat(seatNumber).Status = model.SeatStatusBooked
	}
	flight.AvailableSeats -= len(booking.SeatNumbers)
	flight.UpdatedAt = s.clock.Now()
	if err := s.store.SaveFlight(ctx, flight); err != nil {
		return nil, err
	}
	return flight, nil
}

// invalidateSeatMap 落座後使座位表快取失效。失效失敗只記錄。
func (s *BookingServiceImpl) invalidateSeatMap(ctx context.Context, flightID string) {
	if s.seatMaps == nil {
		return
	}
	if err := s.seatMaps.Invalidate(ctx, flightID); err != nil {
		s.log.Warn("seat map invalidate failed",
			zap.String("flight_id", flightID), zap.Error(err))
	}
}

// publishConfirmed 發布確認通知與確認事件。全部 fire-and-forget。
func (s *BookingServiceImpl) publishConfirmed(ctx context.Context, booking *model.Booking, flight *model.Flight) {
	for _, seatNumber := range booking.SeatNumbers {
		seat := flight.Seat(seatNumber)
		if err := s.notifier.Publish(ctx, notifier.SeatUpdates(booking.FlightID), *seat); err != nil {
			s.log.Warn("publish seat update failed", zap.String("seat_number", seatNumber), zap.Error(err))
		}
	}
	if err := s.notifier.Publish(ctx, notifier.BookingConfirmations(booking.UserID), booking); err != nil {
		s.log.Warn("publish booking confirmation failed", zap.String("booking_id", booking.ID), zap.Error(err))
	}

	event := &model.BookingConfirmedEvent{
		BookingID:   booking.ID,
		PNR:         booking.PNR,
		UserID:      booking.UserID,
		FlightID:    booking.FlightID,
		SeatNumbers: booking.SeatNumbers,
		TotalPrice:  booking.TotalPrice,
		ConfirmedAt: booking.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if len(booking.Passengers) > 0 {
		event.Email = booking.Passengers[0].Email
	}
	if err := s.queue.PublishConfirmed(ctx, event); err != nil {
		s.log.Warn("publish confirmed event failed", zap.String("booking_id", booking.ID), zap.Error(err))
	}
}

func (s *BookingServiceImpl) Cancel(ctx context.Context, bookingID string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Status.CanTransitionTo(model.BookingStatusCancelled) {
		return nil, apperrors.ErrInvalidBookingStatus
	}

	booking.Status = model.BookingStatusCancelled
	booking.UpdatedAt = s.clock.Now()
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingServiceImpl) GetByID(ctx context.Context, bookingID string) (*model.Booking, error) {
	return s.bookings.FindByID(ctx, bookingID)
}

func (s *BookingServiceImpl) GetByPNR(ctx context.Context, code string) (*model.Booking, error) {
	return s.bookings.FindByPNR(ctx, code)
}

func (s *BookingServiceImpl) ListByUser(ctx context.Context, userID string) ([]*model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}
