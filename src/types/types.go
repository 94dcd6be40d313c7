package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONBArray []any

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, &a)
}

// Strings returns the string members of the array, skipping anything else.
func (a JSONBArray) Strings() []string {
	out := make([]string, 0, len(a))
	for _, v := range a {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func NewJSONBArray(values []string) JSONBArray {
	if len(values) == 0 {
		return nil
	}
	arr := make(JSONBArray, len(values))
	for i, v := range values {
		arr[i] = v
	}
	return arr
}

func scanBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, errors.New("type assertion to []byte failed")
}

type BookingType string

const (
	BOOKING_TABLE BookingType = "TABLE"
	BOOKING_SEAT  BookingType = "SEAT"
)

type BookingStatus string

const (
	BOOKING_PENDING  BookingStatus = "PENDING"
	BOOKING_PAID     BookingStatus = "PAID"
	BOOKING_FAILED   BookingStatus = "FAILED"
	BOOKING_REFUNDED BookingStatus = "REFUNDED"
)

// Bookings in these states hold inventory.
var LockedBookingStatuses = []string{string(BOOKING_PENDING), string(BOOKING_PAID)}

type VoucherType string

const (
	VOUCHER_PERCENTAGE   VoucherType = "PERCENTAGE"
	VOUCHER_FIXED_AMOUNT VoucherType = "FIXED_AMOUNT"
	VOUCHER_FIXED_PRICE  VoucherType = "FIXED_PRICE"
)

type TableStatus string

const (
	TABLE_RESERVED TableStatus = "RESERVED"
	TABLE_SEATED   TableStatus = "SEATED"
)

type InviteCodeStatus string

const (
	INVITE_UNUSED   InviteCodeStatus = "UNUSED"
	INVITE_REDEEMED InviteCodeStatus = "REDEEMED"
)

type CreateBookingRequestBody struct {
	Type                 string   `json:"type" binding:"required,oneof=TABLE SEAT"`
	TableCapacity        int      `json:"table_capacity,omitempty" binding:"omitempty,oneof=10 11"`
	Quantity             int      `json:"quantity" binding:"required,min=1,max=100"`
	Name                 string   `json:"name" binding:"required,max=120"`
	Email                string   `json:"email" binding:"required,email,max=254"`
	Phone                string   `json:"phone,omitempty" binding:"omitempty,max=32"`
	MembershipNumber     string   `json:"membership_number,omitempty" binding:"omitempty,max=64"`
	VoucherCode          string   `json:"voucher_code,omitempty" binding:"omitempty,max=64"`
	TableDiscountApplied bool     `json:"table_discount_applied,omitempty"`
	Cuisines             []string `json:"cuisines,omitempty" binding:"omitempty,max=1100,dive,required,max=64"`
}

type PaymentStatusRequestBody struct {
	Status    string `json:"status,omitempty" binding:"omitempty,max=32"`
	SessionID string `json:"session_id,omitempty" binding:"omitempty,max=255"`
}

type BookingURIParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type BookingQueryFilters struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING PAID FAILED REFUNDED"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

type InventorySettingsRequestBody struct {
	TotalTables           int      `json:"total_tables" binding:"min=0"`
	MaxElevenSeaterTables int      `json:"max_eleven_seater_tables" binding:"min=0,ltefield=TotalTables"`
	TablePrice            float64  `json:"table_price" binding:"min=0"`
	TablePromoPrice       *float64 `json:"table_promo_price,omitempty" binding:"omitempty,min=0"`
	TableMemberPrice      *float64 `json:"table_member_price,omitempty" binding:"omitempty,min=0"`
	SeatPrice             float64  `json:"seat_price" binding:"min=0"`
	SeatPromoPrice        *float64 `json:"seat_promo_price,omitempty" binding:"omitempty,min=0"`
	SeatMemberPrice       *float64 `json:"seat_member_price,omitempty" binding:"omitempty,min=0"`
	Currency              string   `json:"currency,omitempty" binding:"omitempty,len=3"`
}

type Handler func(payload string) error
