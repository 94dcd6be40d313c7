package models

import (
	"galabook/src/types"
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID                   uuid.UUID        `gorm:"primarykey;type:uuid;default:gen_random_uuid()" json:"id"`
	Type                 string           `gorm:"index:idx_bookings_dedup,priority:2;not null" json:"type"`
	TableCapacity        int              `gorm:"default:0" json:"table_capacity,omitempty"`
	Category             string           `gorm:"index;not null" json:"category"`
	Quantity             int              `gorm:"index:idx_bookings_dedup,priority:3;not null" json:"quantity"`
	TotalAmount          float64          `gorm:"type:numeric(12,2)" json:"total_amount"`
	BalanceDue           float64          `gorm:"type:numeric(12,2)" json:"balance_due"`
	TransactionFee       float64          `gorm:"type:numeric(12,2);default:0" json:"transaction_fee"`
	Currency             string           `gorm:"size:3" json:"currency"`
	Status               string           `gorm:"index;default:'PENDING'" json:"status"`
	BuyerID              uint             `gorm:"index:idx_bookings_dedup,priority:1" json:"buyer_id"`
	VoucherID            *uint            `json:"voucher_id,omitempty"`
	PaymentReference     *string          `gorm:"uniqueIndex" json:"payment_reference,omitempty"`
	PaymentURL           *string          `json:"-"`
	Cuisines             types.JSONBArray `gorm:"type:jsonb" json:"cuisines,omitempty"`
	MembershipNumber     *string          `json:"membership_number,omitempty"`
	MemberPricing        bool             `json:"member_pricing"`
	TableDiscountApplied bool             `json:"table_discount_applied"`
	PaidAt               *time.Time       `json:"paid_at,omitempty"`

	Buyer       *Buyer        `gorm:"foreignKey:BuyerID" json:"buyer,omitempty"`
	Voucher     *Voucher      `gorm:"foreignKey:VoucherID" json:"voucher,omitempty"`
	Table       *Table        `gorm:"foreignKey:BookingID" json:"table,omitempty"`
	InviteCodes []*InviteCode `gorm:"foreignKey:BookingID" json:"invite_codes,omitempty"`

	types.Timestamps
}

func (b *Booking) IsTable() bool {
	return b.Type == string(types.BOOKING_TABLE)
}
