package bookings

import (
	"galabook/src/models"
	"strings"
	"time"
)

func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// usable checks everything about a voucher except its redemption cap.
func usable(v *models.Voucher, now time.Time) error {
	if v == nil {
		return ErrVoucherNotFound
	}
	if !v.Active {
		return ErrVoucherInactive
	}
	if v.ExpiresAt != nil && now.After(*v.ExpiresAt) {
		return ErrVoucherExpired
	}
	return nil
}

func ValidateVoucher(v *models.Voucher, now time.Time) error {
	if err := usable(v, now); err != nil {
		return err
	}
	if v.CurrentRedemptions >= v.MaxRedemptions {
		return ErrVoucherExhausted
	}
	return nil
}
