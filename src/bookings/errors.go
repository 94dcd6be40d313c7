package bookings

import (
	"errors"
	"fmt"
)

var (
	ErrVoucherNotFound        = errors.New("voucher code is not valid")
	ErrVoucherInactive        = errors.New("voucher code is no longer active")
	ErrVoucherExhausted       = errors.New("voucher code has reached its maximum redemptions")
	ErrVoucherExpired         = errors.New("voucher code has expired")
	ErrDuplicatePending       = errors.New("an identical booking is already being processed, please wait a moment and try again")
	ErrPaymentConfiguration   = errors.New("payment gateway is not configured")
	ErrPaymentGateway         = errors.New("payment gateway request failed")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrBookingNotDeletable    = errors.New("only pending bookings can be deleted")
	ErrInventoryNotConfigured = errors.New("inventory settings are not configured")
)

func IsVoucherError(err error) bool {
	return errors.Is(err, ErrVoucherNotFound) ||
		errors.Is(err, ErrVoucherInactive) ||
		errors.Is(err, ErrVoucherExhausted) ||
		errors.Is(err, ErrVoucherExpired)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// InventoryError reports a request that exceeds what is left in a pool.
type InventoryError struct {
	Pool      Pool
	Remaining int
	Requested int
}

func (e *InventoryError) Error() string {
	remaining := max(e.Remaining, 0)
	return fmt.Sprintf("Only %d %s available. You requested %d.", remaining, e.Pool.noun(remaining), e.Requested)
}
