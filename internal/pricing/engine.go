// Package pricing computes a seat's current price from its base price,
// time to departure, cabin class and position. The engine is a pure
// computation over its inputs plus an injectable fluctuation source; it
// never touches lock or booking state.
package pricing

import (
	"math/rand"
	"sync"
	"time"

	"go-airline-booking/internal/model"
)

// PositionRole 座位欄位的角色：靠窗、走道或其他。
type PositionRole int

const (
	PositionOther PositionRole = iota
	PositionWindow
	PositionAisle
)

// ColumnLayout maps seat columns to their role. The layout is configuration,
// not a hardcoded aircraft assumption.
type ColumnLayout map[string]PositionRole

// DefaultColumnLayout 標準 3-3 窄體機配置：A/F 靠窗，C/D 走道。
func DefaultColumnLayout() ColumnLayout {
	return ColumnLayout{
		"A": PositionWindow,
		"F": PositionWindow,
		"C": PositionAisle,
		"D": PositionAisle,
	}
}

// classMultipliers 艙等加價倍率
var classMultipliers = map[model.SeatClass]float64{
	model.SeatClassEconomy:        1.0,
	model.SeatClassPremiumEconomy: 1.5,
	model.SeatClassBusiness:       2.5,
	model.SeatClassFirst:          4.0,
}

// Engine 動態定價引擎
type Engine struct {
	layout ColumnLayout

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewEngine builds an Engine with the given column layout and random seed.
// The seed is injectable so tests can pin the market fluctuation.
func NewEngine(layout ColumnLayout, seed int64) *Engine {
	if layout == nil {
		layout = DefaultColumnLayout()
	}
	return &Engine{
		layout: layout,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// Price 計算座位目前價格。乘數依序套用：
// 1. 起飛時間接近度：<24h 乘 1+(24-h)/48；<168h 乘 1+(168-h)/672
// 2. 艙等倍率
// 3. 座位位置：靠窗 1.1、走道 1.05
// 4. 市場波動 [0.95, 1.05]
// 5. 下限：永不低於底價
func (e *Engine) Price(seat *model.Seat, flight *model.Flight, now time.Time) float64 {
	if seat.BasePrice <= 0 {
		return 0
	}

	price := seat.BasePrice * e.departureFactor(flight.DepartureTime, now)

	if mult, ok := classMultipliers[seat.Class]; ok {
		price *= mult
	}

	switch e.layout[seat.Column] {
	case PositionWindow:
		price *= 1.1
	case PositionAisle:
		price *= 1.05
	}

	price *= e.fluctuation()

	if price < seat.BasePrice {
		return seat.BasePrice
	}
	return price
}

func (e *Engine) departureFactor(departure, now time.Time) float64 {
	hours := departure.Sub(now).Hours()
	switch {
	case hours < 24:
		return 1 + (24-hours)/48
	case hours < 168:
		return 1 + (168-hours)/672
	default:
		return 1
	}
}

func (e *Engine) fluctuation() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return 0.95 + e.rnd.Float64()*0.1
}

// Reprice 重算航班上所有 Available 座位的價格並寫入 CurrentPrice。
// 已鎖定或已訂的座位不重算，其價格已對持有者承諾。
// 回傳重算的座位數。
func (e *Engine) Reprice(flight *model.Flight, now time.Time) int {
	updated := 0
	for i := range flight.Seats {
		seat := &flight.Seats[i]
		if seat.Status != model.SeatStatusAvailable {
			continue
		}
		seat.CurrentPrice = e.Price(seat, flight, now)
		updated++
	}
	return updated
}
