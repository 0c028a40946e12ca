// Package inventory defines the persistence surface for seat inventory and
// the lock table. The concurrency core is agnostic to the storage backend:
// production wires the pgx implementation in internal/repository, tests and
// single-node deployments use MemoryStore.
package inventory

import (
	"context"
	"time"

	"go-airline-booking/internal/model"
)

// Store 座位庫存與鎖定表的儲存介面
type Store interface {
	// LoadFlight 讀取航班（含座位清單）。回傳的物件為呼叫端私有副本。
	LoadFlight(ctx context.Context, flightID string) (*model.Flight, error)
	// SaveFlight 寫回航班
	SaveFlight(ctx context.Context, flight *model.Flight) error
	// ListActiveFlightIDs 列出尚未起飛的航班，供價格刷新器使用
	ListActiveFlightIDs(ctx context.Context, now time.Time) ([]string, error)
	// SearchFlights 依出發地、目的地與起飛時間區間搜尋航班
	SearchFlights(ctx context.Context, origin, destination string, from, to time.Time) ([]*model.Flight, error)

	// LoadLock 讀取座位鎖，不存在時回傳 apperrors.ErrLockNotOwned
	LoadLock(ctx context.Context, flightID, seatNumber string) (*model.SeatLock, error)
	// SaveLock 建立或覆寫座位鎖
	SaveLock(ctx context.Context, lock *model.SeatLock) error
	// DeleteLock 刪除座位鎖；鎖不存在時不視為錯誤
	DeleteLock(ctx context.Context, flightID, seatNumber string) error
	// ListLocksExpiringBefore 列出所有 expires_at <= t 的鎖，供回收器使用
	ListLocksExpiringBefore(ctx context.Context, t time.Time) ([]*model.SeatLock, error)
}
