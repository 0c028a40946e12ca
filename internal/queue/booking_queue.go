package queue

import (
	"context"

	"go-airline-booking/internal/model"
)

// Delivery 包裝一筆待處理的訂位確認事件，由 worker Ack/Nack。
type Delivery struct {
	Data *model.BookingConfirmedEvent
	Ack  func()
	Nack func(requeue bool)
}

// BookingQueue 訂位確認事件隊列
type BookingQueue interface {
	// PublishConfirmed 發送訂位確認事件到隊列
	PublishConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error
	// SubscribeConfirmed 訂閱訂位確認事件
	SubscribeConfirmed(ctx context.Context) (<-chan Delivery, error)
}

// MemoryBookingQueue 使用 Go channel 模擬 MQ 隊列，單機部署與測試使用。
type MemoryBookingQueue struct {
	ch chan *model.BookingConfirmedEvent
}

func NewMemoryBookingQueue(bufferSize int) *MemoryBookingQueue {
	return &MemoryBookingQueue{
		ch: make(chan *model.BookingConfirmedEvent, bufferSize),
	}
}

func (q *MemoryBookingQueue) PublishConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryBookingQueue) SubscribeConfirmed(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: event,
					Ack:  func() { /* 記憶體版不需額外動作 */ },
					Nack: func(requeue bool) {
						if !requeue {
							return
						}
						// 緩衝已滿時放棄重排，Nack 不可阻塞 worker
						select {
						case q.ch <- event:
						default:
						}
					},
				}
			}
		}
	}()

	return out, nil
}
