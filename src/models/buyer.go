package models

import "galabook/src/types"

type Buyer struct {
	ID               uint    `gorm:"primarykey" json:"id"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	Name             string  `json:"name"`
	Phone            *string `json:"phone,omitempty"`
	MembershipNumber *string `json:"membership_number,omitempty"`

	Bookings []*Booking `gorm:"foreignKey:BuyerID" json:"bookings,omitempty"`

	types.Timestamps
}
