package model

import "time"

// SeatStatus 座位狀態類型
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "available"
	SeatStatusLocked    SeatStatus = "temporarily_locked"
	SeatStatusBooked    SeatStatus = "booked"
)

// IsValid 驗證狀態是否有效
func (s SeatStatus) IsValid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusLocked, SeatStatusBooked:
		return true
	}
	return false
}

// SeatClass 艙等
type SeatClass string

const (
	SeatClassEconomy        SeatClass = "economy"
	SeatClassPremiumEconomy SeatClass = "premium_economy"
	SeatClassBusiness       SeatClass = "business"
	SeatClassFirst          SeatClass = "first_class"
)

// Seat 單一航班座位。狀態只能由 LockManager 或 BookingService 變更。
type Seat struct {
	SeatNumber   string     `json:"seat_number" db:"seat_number"`
	Class        SeatClass  `json:"class" db:"class"`
	BasePrice    float64    `json:"base_price" db:"base_price"`
	CurrentPrice float64    `json:"current_price" db:"current_price"`
	Status       SeatStatus `json:"status" db:"status"`
	Row          int        `json:"row" db:"row"`
	Column       string     `json:"column" db:"column"`
}

// FlightStatus 航班狀態
type FlightStatus string

const (
	FlightStatusOnTime    FlightStatus = "on_time"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
)

func (s FlightStatus) IsValid() bool {
	switch s {
	case FlightStatusOnTime, FlightStatusDelayed, FlightStatusCancelled:
		return true
	}
	return false
}

// Flight 航班模型。AvailableSeats 只在訂位確認時遞減，不在鎖定時遞減。
type Flight struct {
	ID                   string       `json:"id" db:"id"`
	FlightNumber         string       `json:"flight_number" db:"flight_number"`
	Airline              string       `json:"airline" db:"airline"`
	OriginAirportID      string       `json:"origin_airport_id" db:"origin_airport_id"`
	DestinationAirportID string       `json:"destination_airport_id" db:"destination_airport_id"`
	DepartureTime        time.Time    `json:"departure_time" db:"departure_time"`
	ArrivalTime          time.Time    `json:"arrival_time" db:"arrival_time"`
	DurationMinutes      int          `json:"duration_minutes" db:"duration_minutes"`
	BasePrice            float64      `json:"base_price" db:"base_price"`
	AvailableSeats       int          `json:"available_seats" db:"available_seats"`
	TotalSeats           int          `json:"total_seats" db:"total_seats"`
	Status               FlightStatus `json:"status" db:"status"`
	Seats                []Seat       `json:"seats" db:"seats"`
	CreatedAt            time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at" db:"updated_at"`
}

// Seat returns a pointer into the flight's seat slice, or nil when the seat
// number does not exist on this flight.
func (f *Flight) Seat(seatNumber string) *Seat {
	for i := range f.Seats {
		if f.Seats[i].SeatNumber == seatNumber {
			return &f.Seats[i]
		}
	}
	return nil
}

// Clone returns a deep copy. Stores hand out copies so callers can never
// mutate shared inventory without going through the lock manager.
func (f *Flight) Clone() *Flight {
	cp := *f
	cp.Seats = make([]Seat, len(f.Seats))
	copy(cp.Seats, f.Seats)
	return &cp
}

// SearchFlightsRequest 航班搜尋條件
type SearchFlightsRequest struct {
	OriginAirportID      string `form:"origin" binding:"required"`
	DestinationAirportID string `form:"destination" binding:"required"`
	TravelDate           string `form:"date" binding:"required"` // YYYY-MM-DD
	SortBy               string `form:"sort_by"`                 // cheapest, fastest, earliest, latest, best
}

// UpdateFlightStatusRequest 航班狀態更新
type UpdateFlightStatusRequest struct {
	Status FlightStatus `json:"status" binding:"required"`
}
