package model

import "time"

// BookingStatus 訂位狀態類型
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed: {BookingStatusCancelled},
		BookingStatusCancelled: {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Passenger 旅客資料，隨訂位一併保存。
type Passenger struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email"`
}

// Booking 訂位模型。建立時為 Pending，付款成功後才轉 Confirmed。
type Booking struct {
	ID          string        `json:"id" db:"id"`
	PNR         string        `json:"pnr" db:"pnr"`
	UserID      string        `json:"user_id" db:"user_id"`
	FlightID    string        `json:"flight_id" db:"flight_id"`
	SeatNumbers []string      `json:"seat_numbers" db:"seat_numbers"`
	Passengers  []Passenger   `json:"passengers" db:"passengers"`
	TotalPrice  float64       `json:"total_price" db:"total_price"`
	PaymentRef  string        `json:"payment_ref,omitempty" db:"payment_ref"`
	Status      BookingStatus `json:"status" db:"status"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingRequest 建立訂位請求
type CreateBookingRequest struct {
	UserID      string      `json:"user_id" binding:"required"`
	FlightID    string      `json:"flight_id" binding:"required"`
	SeatNumbers []string    `json:"seat_numbers" binding:"required,min=1"`
	Passengers  []Passenger `json:"passengers"`
}

// ConfirmBookingRequest 確認訂位請求。PaymentRef 由付款協作方提供，對本核心而言是不透明代碼。
type ConfirmBookingRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
}

// BookingConfirmedEvent is published to the booking queue when a reservation
// is confirmed. It carries enough for downstream consumers (mail, analytics)
// without querying the database.
type BookingConfirmedEvent struct {
	BookingID   string   `json:"booking_id"`
	PNR         string   `json:"pnr"`
	UserID      string   `json:"user_id"`
	FlightID    string   `json:"flight_id"`
	SeatNumbers []string `json:"seat_numbers"`
	TotalPrice  float64  `json:"total_price"`
	Email       string   `json:"email,omitempty"`
	ConfirmedAt string   `json:"confirmed_at"`
}
