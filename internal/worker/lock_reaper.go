package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-airline-booking/internal/lock"
	"go-airline-booking/pkg/clock"
	"go-airline-booking/pkg/logger"
)

// LockReaper 定期回收過期座位鎖的背景任務。
// 只透過 LockManager 的公開操作回收，不直接碰共享狀態。
type LockReaper struct {
	manager  *lock.Manager
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger
}

func NewLockReaper(manager *lock.Manager, clk clock.Clock, interval time.Duration) *LockReaper {
	return &LockReaper{
		manager:  manager,
		clock:    clk,
		interval: interval,
		log:      logger.WithComponent("lock_reaper"),
	}
}

// Start 啟動回收循環，ctx 取消時停止。
func (w *LockReaper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
}

// runOnce 執行一輪回收。個別座位失敗由 LockManager 記錄並跳過，
// 不會中斷排程任務本身。
func (w *LockReaper) runOnce(ctx context.Context) {
	reaped := w.manager.ReapExpired(ctx, w.clock.Now())
	if reaped > 0 {
		w.log.Info("reaped expired seat locks", zap.Int("count", reaped))
	}
}
