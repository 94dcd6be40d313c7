package models

import "galabook/src/types"

// InventorySetting is a singleton row. Prices are per unit; a nil or zero
// promo/member price means the alternative is not offered.
type InventorySetting struct {
	ID                    uint     `gorm:"primarykey" json:"id"`
	TotalTables           int      `json:"total_tables"`
	MaxElevenSeaterTables int      `json:"max_eleven_seater_tables"`
	TablePrice            float64  `gorm:"type:numeric(12,2)" json:"table_price"`
	TablePromoPrice       *float64 `gorm:"type:numeric(12,2)" json:"table_promo_price,omitempty"`
	TableMemberPrice      *float64 `gorm:"type:numeric(12,2)" json:"table_member_price,omitempty"`
	SeatPrice             float64  `gorm:"type:numeric(12,2)" json:"seat_price"`
	SeatPromoPrice        *float64 `gorm:"type:numeric(12,2)" json:"seat_promo_price,omitempty"`
	SeatMemberPrice       *float64 `gorm:"type:numeric(12,2)" json:"seat_member_price,omitempty"`
	Currency              string   `gorm:"size:3;default:'usd'" json:"currency"`

	types.Timestamps
}
