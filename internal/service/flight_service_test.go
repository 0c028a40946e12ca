package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	"go-airline-booking/internal/service"
	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/clock"
)

var travelDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func newFlightFixture(t *testing.T) (service.FlightService, *inventory.MemoryStore, *notifier.MemoryNotifier) {
	t.Helper()
	store := inventory.NewMemoryStore()
	notify := notifier.NewMemoryNotifier()
	clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	return service.NewFlightService(store, lock.NewKeyedMutex(), nil, notify, clk), store, notify
}

func seedSearchFlight(t *testing.T, store *inventory.MemoryStore, id string, departure time.Time, basePrice float64, durationMinutes int) {
	t.Helper()
	require.NoError(t, store.SaveFlight(context.Background(), &model.Flight{
		ID:                   id,
		OriginAirportID:      "TPE",
		DestinationAirportID: "NRT",
		DepartureTime:        departure,
		ArrivalTime:          departure.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes:      durationMinutes,
		BasePrice:            basePrice,
		Status:               model.FlightStatusOnTime,
		Seats:                []model.Seat{{SeatNumber: "1A", Status: model.SeatStatusAvailable}},
	}))
}

func TestSearch_FiltersByDay(t *testing.T) {
	svc, store, _ := newFlightFixture(t)
	ctx := context.Background()

	seedSearchFlight(t, store, "same-day", travelDay.Add(9*time.Hour), 300, 180)
	seedSearchFlight(t, store, "next-day", travelDay.Add(25*time.Hour), 300, 180)

	flights, err := svc.Search(ctx, model.SearchFlightsRequest{
		OriginAirportID:      "TPE",
		DestinationAirportID: "NRT",
		TravelDate:           "2026-09-01",
	})
	require.NoError(t, err)
	require.Len(t, flights, 1)
	assert.Equal(t, "same-day", flights[0].ID)
}

func TestSearch_InvalidDate(t *testing.T) {
	svc, _, _ := newFlightFixture(t)

	_, err := svc.Search(context.Background(), model.SearchFlightsRequest{
		OriginAirportID:      "TPE",
		DestinationAirportID: "NRT",
		TravelDate:           "01/09/2026",
	})
	assert.Error(t, err)
}

func TestSearch_SortOrders(t *testing.T) {
	svc, store, _ := newFlightFixture(t)
	ctx := context.Background()

	seedSearchFlight(t, store, "pricey-fast", travelDay.Add(8*time.Hour), 500, 120)
	seedSearchFlight(t, store, "cheap-slow", travelDay.Add(10*time.Hour), 200, 300)
	seedSearchFlight(t, store, "mid", travelDay.Add(6*time.Hour), 350, 200)

	search := func(sortBy string) []string {
		flights, err := svc.Search(ctx, model.SearchFlightsRequest{
			OriginAirportID:      "TPE",
			DestinationAirportID: "NRT",
			TravelDate:           "2026-09-01",
			SortBy:               sortBy,
		})
		require.NoError(t, err)
		ids := make([]string, len(flights))
		for i, f := range flights {
			ids[i] = f.ID
		}
		return ids
	}

	assert.Equal(t, []string{"cheap-slow", "mid", "pricey-fast"}, search("cheapest"))
	assert.Equal(t, []string{"pricey-fast", "mid", "cheap-slow"}, search("fastest"))
	assert.Equal(t, []string{"mid", "pricey-fast", "cheap-slow"}, search("earliest"))
	// latest 以抵達時間排序：cheap-slow 15:00、pricey-fast 10:00、mid 9:20
	assert.Equal(t, []string{"cheap-slow", "pricey-fast", "mid"}, search("latest"))
	// best 先比價格
	assert.Equal(t, []string{"cheap-slow", "mid", "pricey-fast"}, search("best"))
}

func TestSeatMap_WithoutCache(t *testing.T) {
	svc, store, _ := newFlightFixture(t)
	ctx := context.Background()

	seedSearchFlight(t, store, "F1", travelDay.Add(9*time.Hour), 300, 180)

	seats, err := svc.SeatMap(ctx, "F1")
	require.NoError(t, err)
	require.Len(t, seats, 1)
	assert.Equal(t, "1A", seats[0].SeatNumber)

	_, err = svc.SeatMap(ctx, "F404")
	assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
}

func TestUpdateStatus(t *testing.T) {
	svc, store, notify := newFlightFixture(t)
	ctx := context.Background()

	seedSearchFlight(t, store, "F1", travelDay.Add(9*time.Hour), 300, 180)

	require.NoError(t, svc.UpdateStatus(ctx, "F1", model.FlightStatusDelayed))

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, model.FlightStatusDelayed, flight.Status)
	assert.Len(t, notify.EventsForTopic(notifier.FlightStatusUpdates("F1")), 1)
}

// 狀態變更的 UpdatedAt 必須來自注入的時鐘
func TestUpdateStatus_StampsInjectedClockTime(t *testing.T) {
	store := inventory.NewMemoryStore()
	notify := notifier.NewMemoryNotifier()
	clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	svc := service.NewFlightService(store, lock.NewKeyedMutex(), nil, notify, clk)
	ctx := context.Background()

	seedSearchFlight(t, store, "F1", travelDay.Add(9*time.Hour), 300, 180)
	clk.Advance(45 * time.Minute)

	require.NoError(t, svc.UpdateStatus(ctx, "F1", model.FlightStatusDelayed))

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), flight.UpdatedAt)
}

func TestUpdateStatus_Invalid(t *testing.T) {
	svc, store, _ := newFlightFixture(t)
	ctx := context.Background()

	seedSearchFlight(t, store, "F1", travelDay.Add(9*time.Hour), 300, 180)

	err := svc.UpdateStatus(ctx, "F1", model.FlightStatus("boarding"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidFlightStatus)

	err = svc.UpdateStatus(ctx, "F404", model.FlightStatusDelayed)
	assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
}
