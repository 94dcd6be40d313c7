package bookings

import (
	"galabook/src/models"
	"galabook/src/types"
	"math"
)

// BundleSubtotal replaces per-seat pricing for a ten-seat bundle.
const BundleSubtotal = 2100.0

type PriceInput struct {
	Pool          Pool
	Quantity      int
	Member        bool
	BundleApplied bool
	Voucher       *models.Voucher
}

type Quote struct {
	TablePrice float64 `json:"table_price"`
	SeatPrice  float64 `json:"seat_price"`
	Subtotal   float64 `json:"subtotal"`
	Discount   float64 `json:"discount"`
	Total      float64 `json:"total"`
}

func (q Quote) Free() bool {
	return q.Total == 0
}

// Price computes the total for one request. It has no side effects and
// depends on nothing but its arguments.
func Price(settings *models.InventorySetting, in PriceInput) Quote {
	tablePrice := unitPrice(settings.TablePrice, settings.TablePromoPrice, settings.TableMemberPrice, in.Member)
	seatPrice := unitPrice(settings.SeatPrice, settings.SeatPromoPrice, settings.SeatMemberPrice, in.Member)
	qty := float64(in.Quantity)

	var subtotal float64
	switch {
	case in.Pool == PoolElevenSeater:
		subtotal = (tablePrice + seatPrice) * qty
	case in.Pool == PoolTenSeater:
		subtotal = tablePrice * qty
	case in.BundleApplied:
		subtotal = BundleSubtotal
	default:
		subtotal = seatPrice * qty
	}

	total := subtotal
	if v := in.Voucher; v != nil {
		switch types.VoucherType(v.Type) {
		case types.VOUCHER_PERCENTAGE:
			total = math.Max(subtotal-subtotal*v.DiscountPercent/100, 0)
		case types.VOUCHER_FIXED_AMOUNT:
			total = math.Max(subtotal-v.DiscountAmount, 0)
		case types.VOUCHER_FIXED_PRICE:
			total = v.FixedPrice * qty
		}
	}
	total = RoundCents(total)

	return Quote{
		TablePrice: tablePrice,
		SeatPrice:  seatPrice,
		Subtotal:   RoundCents(subtotal),
		Discount:   RoundCents(subtotal - total),
		Total:      total,
	}
}

func unitPrice(base float64, promo, member *float64, isMember bool) float64 {
	if isMember && configured(member) {
		return *member
	}
	if configured(promo) {
		return *promo
	}
	return base
}

func configured(p *float64) bool {
	return p != nil && *p > 0
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}
