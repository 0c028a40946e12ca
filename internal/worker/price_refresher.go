package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-airline-booking/internal/inventory"
	"go-airline-booking/internal/lock"
	"go-airline-booking/internal/model"
	"go-airline-booking/internal/notifier"
	"go-airline-booking/internal/pricing"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/logger"
)

// PriceRefresher 定期重算所有未起飛航班 Available 座位價格的背景任務。
// 重算期間持有該航班所有座位鍵，避免與鎖定／訂位狀態轉換互相干擾。
type PriceRefresher struct {
	store    inventory.Store
	engine   *pricing.Engine
	keys     *lock.KeyedMutex
	notifier notifier.Notifier
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger
}

func NewPriceRefresher(
	store inventory.Store,
	engine *pricing.Engine,
	keys *lock.KeyedMutex,
	n notifier.Notifier,
	clk clock.Clock,
	interval time.Duration,
) *PriceRefresher {
	return &PriceRefresher{
		store:    store,
		engine:   engine,
		keys:     keys,
		notifier: n,
		clock:    clk,
		interval: interval,
		log:      logger.WithComponent("price_refresher"),
	}
}

// Start 啟動刷新循環，ctx 取消時停止。
func (w *PriceRefresher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 對每個活躍航班重算一次價格。單一航班失敗只記錄並跳過。
func (w *PriceRefresher) RunOnce(ctx context.Context) {
	now := w.clock.Now()
	flightIDs, err := w.store.ListActiveFlightIDs(ctx, now)
	if err != nil {
		w.log.Error("list active flights failed", zap.Error(err))
		return
	}

	for _, flightID := range flightIDs {
		if err := w.refreshFlight(ctx, flightID, now); err != nil {
			w.log.Error("refresh flight prices failed",
				zap.String("flight_id", flightID), zap.Error(err))
		}
	}
}

func (w *PriceRefresher) refreshFlight(ctx context.Context, flightID string, now time.Time) error {
	flight, err := w.store.LoadFlight(ctx, flightID)
	if err != nil {
		return err
	}

	// 持有整班座位鍵再重讀，確保不與進行中的 acquire/release/confirm 交錯
	keys := make([]string, 0, len(flight.Seats))
	for i := range flight.Seats {
		keys = append(keys, lock.Key(flightID, flight.Seats[i].SeatNumber))
	}
	unlock := w.keys.LockAll(keys)
	defer unlock()

	// 整列寫回以航班鍵序列化（座位鍵之後取得，與其他路徑同序）
	flightKey := lock.FlightKey(flightID)
	w.keys.Lock(flightKey)
	defer w.keys.Unlock(flightKey)

	flight, err = w.store.LoadFlight(ctx, flightID)
	if err != nil {
		return err
	}

	updated := w.engine.Reprice(flight, now)
	if updated == 0 {
		return nil
	}

	flight.UpdatedAt = now
	if err := w.store.SaveFlight(ctx, flight); err != nil {
		return err
	}

	// 每班一則整批價格通知，不逐座位發送
	payload := priceUpdate{FlightID: flightID, Seats: flight.Seats, UpdatedAt: now}
	if err := w.notifier.Publish(ctx, notifier.FlightPriceUpdates(flightID), payload); err != nil {
		w.log.Warn("publish price update failed", zap.String("flight_id", flightID), zap.Error(err))
	}
	return nil
}

type priceUpdate struct {
	FlightID  string       `json:"flight_id"`
	Seats     []model.Seat `json:"seats"`
	UpdatedAt time.Time    `json:"updated_at"`
}
