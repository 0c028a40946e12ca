package model

import "time"

// SeatLock 座位鎖定紀錄。每個 (flight_id, seat_number) 同時最多只能有一筆未過期的鎖。
type SeatLock struct {
	FlightID   string    `json:"flight_id" db:"flight_id"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	UserID     string    `json:"user_id" db:"user_id"`
	LockedAt   time.Time `json:"locked_at" db:"locked_at"`
	ExpiresAt  time.Time `json:"expires_at" db:"expires_at"`
}

// IsExpired 檢查鎖是否已過期
func (l *SeatLock) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Key returns the canonical exclusion key for this lock's seat.
func (l *SeatLock) Key() string {
	return l.FlightID + "/" + l.SeatNumber
}
