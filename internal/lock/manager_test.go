package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/clock"
)

const lockTTL = 2 * time.Minute

func newTestManager(t *testing.T) (*lock.Manager, *inventory.MemoryStore, *notifier.MemoryNotifier, *clock.Fake) {
	t.Helper()

	store := inventory.NewMemoryStore()
	notify := notifier.NewMemoryNotifier()
	clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	manager := lock.NewManager(store, lock.NewKeyedMutex(), notify, clk, nil, lockTTL)

	err := store.SaveFlight(context.Background(), testFlight(clk.Now()))
	require.NoError(t, err)

	return manager, store, notify, clk
}

func testFlight(now time.Time) *model.Flight {
	return &model.Flight{
		ID:                   "F1",
		FlightNumber:         "GA101",
		Airline:              "Gopher Air",
		OriginAirportID:      "TPE",
		DestinationAirportID: "NRT",
		DepartureTime:        now.Add(12 * time.Hour),
		ArrivalTime:          now.Add(15 * time.Hour),
		DurationMinutes:      180,
		AvailableSeats:       3,
		TotalSeats:           3,
		Status:               model.FlightStatusOnTime,
		Seats: []model.Seat{
			{SeatNumber: "12C", Class: model.SeatClassEconomy, BasePrice: 200, CurrentPrice: 200, Status: model.SeatStatusAvailable, Row: 12, Column: "C"},
			{SeatNumber: "12D", Class: model.SeatClassEconomy, BasePrice: 200, CurrentPrice: 200, Status: model.SeatStatusAvailable, Row: 12, Column: "D"},
			{SeatNumber: "16A", Class: model.SeatClassPremiumEconomy, BasePrice: 400, CurrentPrice: 400, Status: model.SeatStatusAvailable, Row: 16, Column: "A"},
		},
	}
}

func TestAcquire_Success(t *testing.T) {
	manager, store, notify, clk := newTestManager(t)
	ctx := context.Background()

	err := manager.Acquire(ctx, "F1", "12C", "u1")
	require.NoError(t, err)

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatStatusLocked, flight.Seat("12C").Status)

	seatLock, err := store.LoadLock(ctx, "F1", "12C")
	require.NoError(t, err)
	assert.Equal(t, "u1", seatLock.UserID)
	assert.Equal(t, clk.Now().Add(lockTTL), seatLock.ExpiresAt)
	assert.True(t, seatLock.ExpiresAt.After(seatLock.LockedAt))

	events := notify.EventsForTopic(notifier.SeatUpdates("F1"))
	require.Len(t, events, 1)
}

func TestAcquire_DeniedWhenAlreadyLocked(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))

	// 他人鎖定中
	err := manager.Acquire(ctx, "F1", "12C", "u2")
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)

	// 同一使用者重複鎖定也拒絕，不延長 TTL
	err = manager.Acquire(ctx, "F1", "12C", "u1")
	assert.ErrorIs(t, err, apperrors.ErrSeatUnavailable)
}

func TestAcquire_DeniedWhenSeatMissingOrFlightMissing(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	err := manager.Acquire(ctx, "F1", "99Z", "u1")
	assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)

	err = manager.Acquire(ctx, "F404", "12C", "u1")
	assert.ErrorIs(t, err, apperrors.ErrFlightNotFound)
}

func TestAcquireRelease_RoundTrip(t *testing.T) {
	manager, store, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))
	require.NoError(t, manager.Release(ctx, "F1", "12C", "u1"))

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatStatusAvailable, flight.Seat("12C").Status)

	_, err = store.LoadLock(ctx, "F1", "12C")
	assert.Error(t, err, "lock should be gone after release")
}

func TestRelease_RejectedForWrongOwnerOrNoLock(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))

	// 持有者不符與鎖不存在回傳相同錯誤，不洩漏持有者身分
	err := manager.Release(ctx, "F1", "12C", "u2")
	assert.ErrorIs(t, err, apperrors.ErrLockNotOwned)

	err = manager.Release(ctx, "F1", "12D", "u1")
	assert.ErrorIs(t, err, apperrors.ErrLockNotOwned)
}

func TestAcquire_OverwritesExpiredLeftoverLock(t *testing.T) {
	manager, store, _, clk := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))

	// 鎖過期但回收器尚未執行：座位狀態還是 Locked，先回收再搶
	clk.Advance(lockTTL + time.Second)
	manager.ReapExpired(ctx, clk.Now())

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u2"))

	seatLock, err := store.LoadLock(ctx, "F1", "12C")
	require.NoError(t, err)
	assert.Equal(t, "u2", seatLock.UserID)
}

func TestReapExpired_RestoresSeatsAndIsIdempotent(t *testing.T) {
	manager, store, notify, clk := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))
	require.NoError(t, manager.Acquire(ctx, "F1", "12D", "u2"))

	// 未過期時不回收
	assert.Equal(t, 0, manager.ReapExpired(ctx, clk.Now()))

	clk.Advance(lockTTL + time.Second)
	assert.Equal(t, 2, manager.ReapExpired(ctx, clk.Now()))

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, model.SeatStatusAvailable, flight.Seat("12C").Status)
	assert.Equal(t, model.SeatStatusAvailable, flight.Seat("12D").Status)

	// 冪等：沒有新鎖時第二輪不再變更任何狀態
	eventsBefore := len(notify.Events())
	assert.Equal(t, 0, manager.ReapExpired(ctx, clk.Now()))
	assert.Equal(t, eventsBefore, len(notify.Events()))
}

func TestReapExpired_OwnershipNotChecked(t *testing.T) {
	manager, store, _, clk := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))
	clk.Advance(lockTTL + time.Second)

	// 過期即失去持有權，回收不需要任何使用者身分
	assert.Equal(t, 1, manager.ReapExpired(ctx, clk.Now()))
	_, err := store.LoadLock(ctx, "F1", "12C")
	assert.Error(t, err)
}

// 模擬搶位：同一座位的併發 acquire 只能有一個成功
func TestConcurrentAcquire_ExactlyOneWinner(t *testing.T) {
	manager, _, _, _ := newTestManager(t)
	ctx := context.Background()

	concurrentUsers := 100

	var wg sync.WaitGroup
	var mu sync.Mutex
	successCount := 0
	failCount := 0

	for i := 0; i < concurrentUsers; i++ {
		wg.Add(1)
		go func(userIndex int) {
			defer wg.Done()

			err := manager.Acquire(ctx, "F1", "12C", userID(userIndex))

			mu.Lock()
			if err == nil {
				successCount++
			} else {
				failCount++
			}
			mu.Unlock()
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 1, successCount, "exactly one acquire should win")
	assert.Equal(t, concurrentUsers-1, failCount)
}

// 同座位混合 acquire/release/reap 併發轟炸後狀態必須一致
func TestConcurrentMixedOperations_StateStaysConsistent(t *testing.T) {
	manager, store, _, clk := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			user := userID(idx)
			if err := manager.Acquire(ctx, "F1", "12C", user); err == nil {
				_ = manager.Release(ctx, "F1", "12C", user)
			}
			manager.ReapExpired(ctx, clk.Now())
		}(i)
	}
	wg.Wait()

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)

	seat := flight.Seat("12C")
	_, lockErr := store.LoadLock(ctx, "F1", "12C")
	if seat.Status == model.SeatStatusLocked {
		assert.NoError(t, lockErr, "locked seat must have a matching lock")
	} else {
		assert.Equal(t, model.SeatStatusAvailable, seat.Status)
		assert.Error(t, lockErr, "available seat must not have a lock")
	}
}

// 不同座位的操作可以平行進行，互不阻塞，
// 且每個座位最後的庫存狀態都要與鎖定表一致
func TestAcquire_DifferentSeatsProceedInParallel(t *testing.T) {
	manager, store, _, clk := newTestManager(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, seat := range []string{"12C", "12D", "16A"} {
		wg.Add(1)
		go func(i int, seat string) {
			defer wg.Done()
			errs[i] = manager.Acquire(ctx, "F1", seat, userID(i))
		}(i, seat)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}

	flight, err := store.LoadFlight(ctx, "F1")
	require.NoError(t, err)
	for _, seat := range []string{"12C", "12D", "16A"} {
		assert.Equal(t, model.SeatStatusLocked, flight.Seat(seat).Status, "seat %s", seat)
		seatLock, err := store.LoadLock(ctx, "F1", seat)
		require.NoError(t, err, "seat %s", seat)
		assert.False(t, seatLock.IsExpired(clk.Now()))
	}
}

// slowStore 模擬資料庫往返延遲，拉大整列寫回互相交錯的窗口
type slowStore struct {
	*inventory.MemoryStore
}

func (s *slowStore) LoadFlight(ctx context.Context, flightID string) (*model.Flight, error) {
	time.Sleep(time.Millisecond)
	return s.MemoryStore.LoadFlight(ctx, flightID)
}

func (s *slowStore) SaveFlight(ctx context.Context, flight *model.Flight) error {
	time.Sleep(time.Millisecond)
	return s.MemoryStore.SaveFlight(ctx, flight)
}

// 航班是單一儲存單位：不同座位的平行 acquire 各持各的座位鍵，
// 整列寫回必須以航班鍵序列化，任何一邊的變更都不能被覆蓋。
func TestConcurrentAcquire_DifferentSeats_InventoryMatchesLockTable(t *testing.T) {
	ctx := context.Background()
	seats := []string{"12C", "12D", "16A"}

	for round := 0; round < 20; round++ {
		store := &slowStore{MemoryStore: inventory.NewMemoryStore()}
		clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
		manager := lock.NewManager(store, lock.NewKeyedMutex(), notifier.NewMemoryNotifier(), clk, nil, lockTTL)
		require.NoError(t, store.SaveFlight(ctx, testFlight(clk.Now())))

		var wg sync.WaitGroup
		for i, seat := range seats {
			wg.Add(1)
			go func(i int, seat string) {
				defer wg.Done()
				assert.NoError(t, manager.Acquire(ctx, "F1", seat, userID(i)))
			}(i, seat)
		}
		wg.Wait()

		flight, err := store.LoadFlight(ctx, "F1")
		require.NoError(t, err)
		for _, seat := range seats {
			assert.Equal(t, model.SeatStatusLocked, flight.Seat(seat).Status,
				"round %d seat %s: lock table has an active lock but inventory lost the update", round, seat)
			_, err := store.LoadLock(ctx, "F1", seat)
			require.NoError(t, err, "round %d seat %s", round, seat)
		}
	}
}

// 平行的 acquire 與 release 落在不同座位上也不能互相覆蓋
func TestConcurrentAcquireAndRelease_DifferentSeats_NoLostUpdate(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 20; round++ {
		store := &slowStore{MemoryStore: inventory.NewMemoryStore()}
		clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
		manager := lock.NewManager(store, lock.NewKeyedMutex(), notifier.NewMemoryNotifier(), clk, nil, lockTTL)
		require.NoError(t, store.SaveFlight(ctx, testFlight(clk.Now())))

		// 12C 先鎖好，release 與 12D 的 acquire 平行執行
		require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Release(ctx, "F1", "12C", "u1"))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Acquire(ctx, "F1", "12D", "u2"))
		}()
		wg.Wait()

		flight, err := store.LoadFlight(ctx, "F1")
		require.NoError(t, err)
		assert.Equal(t, model.SeatStatusAvailable, flight.Seat("12C").Status, "round %d", round)
		assert.Equal(t, model.SeatStatusLocked, flight.Seat("12D").Status, "round %d", round)
	}
}

// recordingInvalidator 記錄座位表快取失效呼叫
type recordingInvalidator struct {
	mu      sync.Mutex
	flights []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, flightID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flights = append(r.flights, flightID)
	return nil
}

func (r *recordingInvalidator) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flights)
}

// 每一次座位狀態轉換（鎖定、釋放、回收）都要使座位表快取失效
func TestSeatMapInvalidatedOnEveryLockTransition(t *testing.T) {
	ctx := context.Background()

	store := inventory.NewMemoryStore()
	inv := &recordingInvalidator{}
	clk := clock.NewFake(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))
	manager := lock.NewManager(store, lock.NewKeyedMutex(), notifier.NewMemoryNotifier(), clk, inv, lockTTL)
	require.NoError(t, store.SaveFlight(ctx, testFlight(clk.Now())))

	require.NoError(t, manager.Acquire(ctx, "F1", "12C", "u1"))
	assert.Equal(t, 1, inv.count())

	require.NoError(t, manager.Release(ctx, "F1", "12C", "u1"))
	assert.Equal(t, 2, inv.count())

	require.NoError(t, manager.Acquire(ctx, "F1", "12D", "u2"))
	clk.Advance(lockTTL + time.Second)
	require.Equal(t, 1, manager.ReapExpired(ctx, clk.Now()))
	assert.Equal(t, 4, inv.count())
}

func userID(i int) string {
	return "user-" + string(rune('A'+i%26)) + string(rune('0'+i/26%10))
}
