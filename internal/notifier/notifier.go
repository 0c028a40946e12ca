// Package notifier fans out inventory state changes to interested
// subscribers. Publishing is fire-and-forget: a failed publish never rolls
// back the state mutation that triggered it.
package notifier

import "context"

// Topic 名稱與訂閱端約定的主題格式
const (
	topicSeatUpdates          = "seat-updates/"
	topicFlightPriceUpdates   = "flight-price-updates/"
	topicFlightStatusUpdates  = "flight-status-updates/"
	topicBookingConfirmations = "booking-confirmations/"
)

// SeatUpdates 單一座位狀態變更主題
func SeatUpdates(flightID string) string {
	return topicSeatUpdates + flightID
}

// FlightPriceUpdates 整班價格更新主題（整批、非逐座位）
func FlightPriceUpdates(flightID string) string {
	return topicFlightPriceUpdates + flightID
}

// FlightStatusUpdates 航班狀態主題
func FlightStatusUpdates(flightID string) string {
	return topicFlightStatusUpdates + flightID
}

// BookingConfirmations 使用者訂位確認主題
func BookingConfirmations(userID string) string {
	return topicBookingConfirmations + userID
}

// Notifier 狀態變更的對外發布介面
type Notifier interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}
