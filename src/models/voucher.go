package models

import (
	"galabook/src/types"
	"time"
)

type Voucher struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	Code               string     `gorm:"uniqueIndex;not null" json:"code"`
	Type               string     `gorm:"not null" json:"type"`
	DiscountPercent    float64    `json:"discount_percent,omitempty"`
	DiscountAmount     float64    `gorm:"type:numeric(12,2)" json:"discount_amount,omitempty"`
	FixedPrice         float64    `gorm:"type:numeric(12,2)" json:"fixed_price,omitempty"`
	MaxRedemptions     int        `json:"max_redemptions"`
	CurrentRedemptions int        `gorm:"default:0;check:current_redemptions <= max_redemptions" json:"current_redemptions"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	Active             bool       `gorm:"not null" json:"active"`

	types.Timestamps
}
