package bookings

import (
	"galabook/src/models"
	"galabook/src/types"
)

// Pool is one of the three inventory pools. Its value doubles as the
// booking category.
type Pool string

const (
	PoolTenSeater    Pool = "TABLE_10"
	PoolElevenSeater Pool = "TABLE_11"
	PoolSeat         Pool = "SEAT"
)

func PoolFor(kind types.BookingType, capacity int) Pool {
	if kind == types.BOOKING_SEAT {
		return PoolSeat
	}
	if capacity == 11 {
		return PoolElevenSeater
	}
	return PoolTenSeater
}

func (p Pool) noun(n int) string {
	var unit string
	switch p {
	case PoolTenSeater:
		unit = "ten-seater table"
	case PoolElevenSeater:
		unit = "eleven-seater table"
	default:
		unit = "seat"
	}
	if n == 1 {
		return unit
	}
	return unit + "s"
}

// LockedCounts holds the summed quantities of PENDING and PAID bookings
// per pool.
type LockedCounts struct {
	TenSeaterTables    int
	ElevenSeaterTables int
	Seats              int
}

func (c *LockedCounts) Add(pool Pool, quantity int) {
	switch pool {
	case PoolTenSeater:
		c.TenSeaterTables += quantity
	case PoolElevenSeater:
		c.ElevenSeaterTables += quantity
	case PoolSeat:
		c.Seats += quantity
	}
}

// Available returns what is left in pool. The result may be negative when
// settings were lowered below what is already sold.
//
// An eleven-seater is a ten-seater slot plus one bonus seat: it draws from
// the base table pool and from the seat pool, while ten-seaters never draw
// from the eleven-seater allowance.
func Available(settings *models.InventorySetting, counts LockedCounts, pool Pool) int {
	switch pool {
	case PoolElevenSeater:
		return settings.MaxElevenSeaterTables - counts.ElevenSeaterTables
	case PoolTenSeater:
		return settings.TotalTables - counts.ElevenSeaterTables - counts.TenSeaterTables
	default:
		seatPool := settings.TotalTables*10 + settings.MaxElevenSeaterTables
		taken := counts.Seats + counts.TenSeaterTables*10 + counts.ElevenSeaterTables*11
		return seatPool - taken
	}
}

func checkInventory(settings *models.InventorySetting, counts LockedCounts, pool Pool, requested int) *InventoryError {
	available := Available(settings, counts, pool)
	if requested > available {
		return &InventoryError{Pool: pool, Remaining: available, Requested: requested}
	}
	return nil
}

type Availability struct {
	TenSeaterTables    int `json:"ten_seater_tables"`
	ElevenSeaterTables int `json:"eleven_seater_tables"`
	Seats              int `json:"seats"`
}

func Snapshot(settings *models.InventorySetting, counts LockedCounts) Availability {
	return Availability{
		TenSeaterTables:    max(Available(settings, counts, PoolTenSeater), 0),
		ElevenSeaterTables: max(Available(settings, counts, PoolElevenSeater), 0),
		Seats:              max(Available(settings, counts, PoolSeat), 0),
	}
}
