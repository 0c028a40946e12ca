package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"go-airline-booking/internal/cache"
	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/logger"
)

type FlightService interface {
	// Search 搜尋航班並依 sort_by 排序
	Search(ctx context.Context, req model.SearchFlightsRequest) ([]*model.Flight, error)
	GetByID(ctx context.Context, flightID string) (*model.Flight, error)
	// SeatMap 取得座位表（cache-aside）
	SeatMap(ctx context.Context, flightID string) ([]model.Seat, error)
	// UpdateStatus 更新航班狀態並發布通知
	UpdateStatus(ctx context.Context, flightID string, status model.FlightStatus) error
}

type FlightServiceImpl struct {
	store    inventory.Store
	keys     *lock.KeyedMutex
	seatMaps cache.SeatMapCache
	notifier notifier.Notifier
	clock    clock.Clock
	log      *zap.Logger
}

// NewFlightService 建立航班服務。seatMaps 可為 nil，表示不使用座位表快取。
func NewFlightService(store inventory.Store, keys *lock.KeyedMutex, seatMaps cache.SeatMapCache, n notifier.Notifier, clk clock.Clock) FlightService {
	return &FlightServiceImpl{
		store:    store,
		keys:     keys,
		seatMaps: seatMaps,
		notifier: n,
		clock:    clk,
		log:      logger.WithComponent("flight_service"),
	}
}

func (s *FlightServiceImpl) Search(ctx context.Context, req model.SearchFlightsRequest) ([]*model.Flight, error) {
	travelDate, err := time.Parse("2006-01-02", req.TravelDate)
	if err != nil {
		return nil, fmt.Errorf("invalid travel date %q: %w", req.TravelDate, err)
	}
	from := travelDate
	to := travelDate.Add(24*time.Hour - time.Second)

	flights, err := s.store.SearchFlights(ctx, req.OriginAirportID, req.DestinationAirportID, from, to)
	if err != nil {
		return nil, err
	}

	sortFlights(flights, req.SortBy)
	return flights, nil
}

// sortFlights 依排序條件排序；best 綜合價格、飛行時間與起飛時間。
func sortFlights(flights []*model.Flight, sortBy string) {
	switch sortBy {
	case "cheapest":
		sort.Slice(flights, func(i, j int) bool { return flights[i].BasePrice < flights[j].BasePrice })
	case "fastest":
		sort.Slice(flights, func(i, j int) bool { return flights[i].DurationMinutes < flights[j].DurationMinutes })
	case "earliest":
		sort.Slice(flights, func(i, j int) bool { return flights[i].DepartureTime.Before(flights[j].DepartureTime) })
	case "latest":
		sort.Slice(flights, func(i, j int) bool { return flights[i].ArrivalTime.After(flights[j].ArrivalTime) })
	default: // best
		sort.Slice(flights, func(i, j int) bool {
			if flights[i].BasePrice != flights[j].BasePrice {
				return flights[i].BasePrice < flights[j].BasePrice
			}
			if flights[i].DurationMinutes != flights[j].DurationMinutes {
				return flights[i].DurationMinutes < flights[j].DurationMinutes
			}
			return flights[i].DepartureTime.Before(flights[j].DepartureTime)
		})
	}
}

func (s *FlightServiceImpl) GetByID(ctx context.Context, flightID string) (*model.Flight, error) {
	return s.store.LoadFlight(ctx, flightID)
}

func (s *FlightServiceImpl) SeatMap(ctx context.Context, flightID string) ([]model.Seat, error) {
	if s.seatMaps != nil {
		if seats, err := s.seatMaps.Get(ctx, flightID); err == nil {
			return seats, nil
		}
	}

	flight, err := s.store.LoadFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	if s.seatMaps != nil {
		if err := s.seatMaps.Set(ctx, flightID, flight.Seats); err != nil {
			s.log.Warn("seat map cache set failed", zap.String("flight_id", flightID), zap.Error(err))
		}
	}
	return flight.Seats, nil
}

func (s *FlightServiceImpl) UpdateStatus(ctx context.Context, flightID string, status model.FlightStatus) error {
	if !status.IsValid() {
		return apperrors.ErrInvalidFlightStatus
	}

	// 整列寫回以航班鍵序列化，不覆蓋平行進行的座位狀態變更
	flightKey := lock.FlightKey(flightID)
	s.keys.Lock(flightKey)
	flight, err := s.store.LoadFlight(ctx, flightID)
	if err != nil {
		s.keys.Unlock(flightKey)
		return err
	}

	flight.Status = status
	flight.UpdatedAt = s.clock.Now()
	if err := s.store.SaveFlight(ctx, flight); err != nil {
		s.keys.Unlock(flightKey)
		return err
	}
	s.keys.Unlock(flightKey)

	// 通知失敗不回滾狀態變更
	if err := s.notifier.Publish(ctx, notifier.FlightStatusUpdates(flightID), status); err != nil {
		s.log.Warn("publish flight status failed", zap.String("flight_id", flightID), zap.Error(err))
	}
	return nil
}
