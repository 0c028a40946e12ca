package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"go-airline-booking/internal/model"
	"go-airline-booking/pkg/logger"
)

const confirmedQueueName = "booking.confirmed"

// AMQPBookingQueue 以 RabbitMQ 實作的 BookingQueue。
// 隊列為 durable、訊息為 persistent，broker 重啟後確認事件不會遺失。
type AMQPBookingQueue struct {
	conn *amqp.Connection
	log  *zap.Logger
}

// NewAMQPBookingQueue dials the broker and declares the durable queue.
// Declaration is idempotent so publisher and consumer can start in any order.
func NewAMQPBookingQueue(url string) (*AMQPBookingQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(confirmedQueueName, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	return &AMQPBookingQueue{
		conn: conn,
		log:  logger.WithComponent("booking_queue"),
	}, nil
}

func (q *AMQPBookingQueue) Close() error {
	return q.conn.Close()
}

func (q *AMQPBookingQueue) PublishConfirmed(ctx context.Context, event *model.BookingConfirmedEvent) error {
	ch, err := q.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", confirmedQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (q *AMQPBookingQueue) SubscribeConfirmed(ctx context.Context) (<-chan Delivery, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.Qos(50, 0, false); err != nil {
		q.log.Warn("set qos failed", zap.Error(err))
	}

	msgs, err := ch.Consume(confirmedQueueName, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var event model.BookingConfirmedEvent
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					q.log.Error("unmarshal confirmed event failed", zap.Error(err))
					// 無法解析的訊息不重排，避免無窮重試
					_ = msg.Nack(false, false)
					continue
				}

				d := Delivery{
					Data: &event,
					Ack:  func() { _ = msg.Ack(false) },
					Nack: func(requeue bool) { _ = msg.Nack(false, requeue) },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
