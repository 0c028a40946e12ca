package worker

import (
	"context"

	"go.uber.org/zap"

	"go-airline-booking/internal/mailer"
	"go-airline-booking/internal/queue"
	"go-airline-booking/pkg/logger"
)

// ConfirmationWorker 消費訂位確認隊列並寄送確認信。
type ConfirmationWorker struct {
	queue  queue.BookingQueue
	mailer mailer.Mailer
	log    *zap.Logger
}

func NewConfirmationWorker(q queue.BookingQueue, m mailer.Mailer) *ConfirmationWorker {
	return &ConfirmationWorker{
		queue:  q,
		mailer: m,
		log:    logger.WithComponent("confirmation_worker"),
	}
}

func (w *ConfirmationWorker) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeConfirmed(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.mailer.SendBookingConfirmation(msg.Data)
			if err != nil {
				w.log.Error("send confirmation failed",
					zap.String("pnr", msg.Data.PNR), zap.Error(err))
				// 寄送失敗重排，等待下一次投遞
				msg.Nack(true)
				continue
			}
			msg.Ack()
		}
	}()
	return nil
}
