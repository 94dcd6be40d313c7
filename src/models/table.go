package models

import (
	"galabook/src/types"

	"github.com/google/uuid"
)

type Table struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"booking_id"`
	Name      string    `json:"name"`
	Capacity  int       `json:"capacity"`
	Units     int       `gorm:"default:1" json:"units"`
	Hash      string    `gorm:"uniqueIndex;size:64;not null" json:"hash"`
	Status    string    `gorm:"default:'RESERVED'" json:"status"`

	types.Timestamps
}
