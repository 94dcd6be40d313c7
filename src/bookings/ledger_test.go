package bookings

import (
	"galabook/src/models"
	"galabook/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvailable(t *testing.T) {
	settings := &models.InventorySetting{TotalTables: 10, MaxElevenSeaterTables: 3}

	t.Run("empty ledger", func(t *testing.T) {
		counts := LockedCounts{}
		assert.Equal(t, 10, Available(settings, counts, PoolTenSeater))
		assert.Equal(t, 3, Available(settings, counts, PoolElevenSeater))
		assert.Equal(t, 103, Available(settings, counts, PoolSeat))
	})

	t.Run("eleven-seaters draw from the ten-seater pool", func(t *testing.T) {
		counts := LockedCounts{ElevenSeaterTables: 2}
		assert.Equal(t, 8, Available(settings, counts, PoolTenSeater))
		assert.Equal(t, 1, Available(settings, counts, PoolElevenSeater))
		assert.Equal(t, 103-22, Available(settings, counts, PoolSeat))
	})

	t.Run("ten-seaters leave the eleven-seater allowance alone", func(t *testing.T) {
		counts := LockedCounts{TenSeaterTables: 4}
		assert.Equal(t, 6, Available(settings, counts, PoolTenSeater))
		assert.Equal(t, 3, Available(settings, counts, PoolElevenSeater))
		assert.Equal(t, 63, Available(settings, counts, PoolSeat))
	})

	t.Run("seats", func(t *testing.T) {
		counts := LockedCounts{Seats: 25}
		assert.Equal(t, 78, Available(settings, counts, PoolSeat))
		assert.Equal(t, 10, Available(settings, counts, PoolTenSeater))
	})

	t.Run("oversold pools go negative", func(t *testing.T) {
		lowered := &models.InventorySetting{TotalTables: 2, MaxElevenSeaterTables: 0}
		counts := LockedCounts{TenSeaterTables: 3}
		assert.Equal(t, -1, Available(lowered, counts, PoolTenSeater))
		assert.Equal(t, -10, Available(lowered, counts, PoolSeat))
	})
}

func TestCheckInventory(t *testing.T) {
	settings := &models.InventorySetting{TotalTables: 1}

	assert.Nil(t, checkInventory(settings, LockedCounts{}, PoolTenSeater, 1))

	shortage := checkInventory(settings, LockedCounts{TenSeaterTables: 1}, PoolTenSeater, 1)
	if assert.NotNil(t, shortage) {
		assert.Equal(t, 0, shortage.Remaining)
		assert.Equal(t, "Only 0 ten-seater tables available. You requested 1.", shortage.Error())
	}
}

func TestInventoryErrorMessage(t *testing.T) {
	cases := []struct {
		err  InventoryError
		want string
	}{
		{InventoryError{Pool: PoolTenSeater, Remaining: 1, Requested: 2}, "Only 1 ten-seater table available. You requested 2."},
		{InventoryError{Pool: PoolElevenSeater, Remaining: 0, Requested: 1}, "Only 0 eleven-seater tables available. You requested 1."},
		{InventoryError{Pool: PoolSeat, Remaining: 1, Requested: 4}, "Only 1 seat available. You requested 4."},
		{InventoryError{Pool: PoolSeat, Remaining: 3, Requested: 4}, "Only 3 seats available. You requested 4."},
		{InventoryError{Pool: PoolSeat, Remaining: -2, Requested: 1}, "Only 0 seats available. You requested 1."},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.Error())
	}
}

func TestPoolFor(t *testing.T) {
	assert.Equal(t, PoolSeat, PoolFor(types.BOOKING_SEAT, 0))
	assert.Equal(t, PoolTenSeater, PoolFor(types.BOOKING_TABLE, 10))
	assert.Equal(t, PoolElevenSeater, PoolFor(types.BOOKING_TABLE, 11))
}

func TestSnapshotClampsForDisplay(t *testing.T) {
	settings := &models.InventorySetting{TotalTables: 1, MaxElevenSeaterTables: 1}
	a := Snapshot(settings, LockedCounts{TenSeaterTables: 1, ElevenSeaterTables: 1})
	assert.Equal(t, Availability{TenSeaterTables: 0, ElevenSeaterTables: 0, Seats: 0}, a)
}
