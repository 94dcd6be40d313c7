package models

import (
	"galabook/src/types"

	"github.com/google/uuid"
)

type InviteCode struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	BookingID uuid.UUID `gorm:"type:uuid;index" json:"booking_id"`
	Code      string    `gorm:"uniqueIndex;size:16;not null" json:"code"`
	Status    string    `gorm:"default:'UNUSED'" json:"status"`

	types.Timestamps
}
