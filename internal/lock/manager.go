package lock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	apperrors "go-airline-booking/pkg/app_errors"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/logger"
)

// SeatMapInvalidator 座位狀態變更後使座位表快取失效。
type SeatMapInvalidator interface {
	Invalidate(ctx context.Context, flightID string) error
}

// Manager 座位鎖定管理器。所有座位狀態轉換（鎖定、釋放、回收）
// 都必須經過這裡，同一座位的操作以 KeyedMutex 序列化。
type Manager struct {
	store    inventory.Store
	keys     *KeyedMutex
	notifier notifier.Notifier
	clock    clock.Clock
	seatMaps SeatMapInvalidator // 可為 nil，表示不使用座位表快取
	ttl      time.Duration
	log      *zap.Logger
}

func NewManager(store inventory.Store, keys *KeyedMutex, n notifier.Notifier, clk clock.Clock, seatMaps SeatMapInvalidator, ttl time.Duration) *Manager {
	return &Manager{
		store:    store,
		keys:     keys,
		notifier: n,
		clock:    clk,
		seatMaps: seatMaps,
		ttl:      ttl,
		log:      logger.WithComponent("lock_manager"),
	}
}

// TTL returns the configured lock duration.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Acquire 鎖定座位。座位不存在、非 Available、或已有未過期的鎖
// （包括同一使用者重複鎖定）都會被拒絕。重複鎖定不延長 TTL。
func (m *Manager) Acquire(ctx context.Context, flightID, seatNumber, userID string) error {
	key := Key(flightID, seatNumber)
	m.keys.Lock(key)
	defer m.keys.Unlock(key)

	flight, err := m.store.LoadFlight(ctx, flightID)
	if err != nil {
		return err
	}

	seat := flight.Seat(seatNumber)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}
	if seat.Status != model.SeatStatusAvailable {
		return apperrors.ErrSeatUnavailable
	}

	now := m.clock.Now()
	if existing, err := m.store.LoadLock(ctx, flightID, seatNumber); err == nil {
		if !existing.IsExpired(now) {
			return apperrors.ErrSeatUnavailable
		}
		// 過期但尚未被回收的殘留鎖，直接覆寫
	}

	seatLock := &model.SeatLock{
		FlightID:   flightID,
		SeatNumber: seatNumber,
		UserID:     userID,
		LockedAt:   now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.store.SaveLock(ctx, seatLock); err != nil {
		return fmt.Errorf("save seat lock: %w", err)
	}

	locked, err := m.setSeatStatus(ctx, flightID, seatNumber, model.SeatStatusLocked)
	if err != nil {
		return fmt.Errorf("save flight: %w", err)
	}

	m.invalidateSeatMap(ctx, flightID)
	m.publishSeatUpdate(ctx, flightID, *locked)
	return nil
}

// setSeatStatus 在航班鍵下重讀航班、改寫單一座位後整列寫回。
// 呼叫端必須已持有該座位的座位鍵；其餘座位可能被平行變更，
// 重讀加整列寫回的序列化保證不會覆蓋它們。
func (m *Manager) setSeatStatus(ctx context.Context, flightID, seatNumber string, status model.SeatStatus) (*model.Seat, error) {
	flightKey := FlightKey(flightID)
	m.keys.Lock(flightKey)
	defer m.keys.Unlock(flightKey)

	flight, err := m.store.LoadFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}
	seat := flight.Seat(seatNumber)
	if seat == nil {
		return nil, apperrors.ErrSeatNotFound
	}

	seat.Status = status
	flight.UpdatedAt = m.clock.Now()
	if err := m.store.SaveFlight(ctx, flight); err != nil {
		return nil, err
	}
	return seat, nil
}

// Release 釋放座位鎖。只接受 (flightID, seatNumber, userID) 完全相符的
// 有效鎖；鎖不存在與持有者不符都回傳 ErrLockNotOwned，不區分兩者，
// 以免洩漏鎖持有者身分。
func (m *Manager) Release(ctx context.Context, flightID, seatNumber, userID string) error {
	key := Key(flightID, seatNumber)
	m.keys.Lock(key)
	defer m.keys.Unlock(key)

	seatLock, err := m.store.LoadLock(ctx, flightID, seatNumber)
	if err != nil {
		return apperrors.ErrLockNotOwned
	}
	if seatLock.UserID != userID || seatLock.IsExpired(m.clock.Now()) {
		return apperrors.ErrLockNotOwned
	}

	if err := m.store.DeleteLock(ctx, flightID, seatNumber); err != nil {
		return fmt.Errorf("delete seat lock: %w", err)
	}

	m.restoreSeat(ctx, flightID, seatNumber)
	return nil
}

// ReapExpired 回收所有 expiresAt <= now 的鎖並把座位還原為 Available。
// 不檢查持有者（過期即失去持有權）。個別座位失敗只記錄並繼續，
// 永遠不會中斷整批回收。回傳成功回收的數量。
func (m *Manager) ReapExpired(ctx context.Context, now time.Time) int {
	expired, err := m.store.ListLocksExpiringBefore(ctx, now)
	if err != nil {
		m.log.Error("list expired locks failed", zap.Error(err))
		return 0
	}

	reaped := 0
	for _, seatLock := range expired {
		if err := m.reapOne(ctx, seatLock, now); err != nil {
			m.log.Error("reap seat lock failed",
				zap.String("flight_id", seatLock.FlightID),
				zap.String("seat_number", seatLock.SeatNumber),
				zap.Error(err))
			continue
		}
		reaped++
	}
	return reaped
}

func (m *Manager) reapOne(ctx context.Context, seatLock *model.SeatLock, now time.Time) error {
	key := Key(seatLock.FlightID, seatLock.SeatNumber)
	m.keys.Lock(key)
	defer m.keys.Unlock(key)

	// 在取得座位鍵之前，鎖可能已被釋放或重新取得，必須重讀驗證。
	current, err := m.store.LoadLock(ctx, seatLock.FlightID, seatLock.SeatNumber)
	if err != nil || !current.IsExpired(now) {
		return nil
	}

	if err := m.store.DeleteLock(ctx, seatLock.FlightID, seatLock.SeatNumber); err != nil {
		return fmt.Errorf("delete seat lock: %w", err)
	}

	m.restoreSeat(ctx, seatLock.FlightID, seatLock.SeatNumber)
	return nil
}

// restoreSeat 把座位狀態還原為 Available 並發布座位更新。
// 鎖已刪除後座位寫回失敗只記錄；鎖定表是唯一真實來源，座位狀態可重建。
func (m *Manager) restoreSeat(ctx context.Context, flightID, seatNumber string) {
	seat, err := m.setSeatStatus(ctx, flightID, seatNumber, model.SeatStatusAvailable)
	if err != nil {
		m.log.Error("restore seat failed",
			zap.String("flight_id", flightID),
			zap.String("seat_number", seatNumber),
			zap.Error(err))
		return
	}

	m.invalidateSeatMap(ctx, flightID)
	m.publishSeatUpdate(ctx, flightID, *seat)
}

// invalidateSeatMap 座位狀態變更後使快取失效。失效失敗只記錄，
// 快取自帶 TTL，最終仍會收斂。
func (m *Manager) invalidateSeatMap(ctx context.Context, flightID string) {
	if m.seatMaps == nil {
		return
	}
	if err := m.seatMaps.Invalidate(ctx, flightID); err != nil {
		m.log.Warn("seat map invalidate failed",
			zap.String("flight_id", flightID), zap.Error(err))
	}
}

// publishSeatUpdate 發布座位狀態通知。通知失敗不回滾狀態變更。
func (m *Manager) publishSeatUpdate(ctx context.Context, flightID string, seat model.Seat) {
	if err := m.notifier.Publish(ctx, notifier.SeatUpdates(flightID), seat); err != nil {
		m.log.Warn("publish seat update failed",
			zap.String("flight_id", flightID),
			zap.String("seat_number", seat.SeatNumber),
			zap.Error(err))
	}
}
