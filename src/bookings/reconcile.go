package bookings

import (
	"context"
	"galabook/src/models"
	"galabook/src/types"
	"log"
	"strings"

	"github.com/google/uuid"
)

type PaymentOutcome int

const (
	PaymentUnknown PaymentOutcome = iota
	PaymentSucceeded
	PaymentFailed
)

// NormalizePaymentStatus maps gateway and client status words onto an
// outcome. Anything outside the two vocabularies is PaymentUnknown.
func NormalizePaymentStatus(status string) PaymentOutcome {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "succeeded", "success", "paid":
		return PaymentSucceeded
	case "failed", "canceled", "cancelled", "expired":
		return PaymentFailed
	}
	return PaymentUnknown
}

type ReconcileResult string

const (
	RECONCILE_PAID         ReconcileResult = "paid"
	RECONCILE_ALREADY_PAID ReconcileResult = "already_paid"
	RECONCILE_FAILED       ReconcileResult = "failed"
	RECONCILE_IGNORED      ReconcileResult = "ignored"
)

type PaymentUpdate struct {
	BookingID uuid.UUID
	Reference string
	Status    string
}

// ReconcilePayment applies a payment notification to a booking. Only the
// first transition into PAID persists the reference and schedules the
// confirmation email; repeats are no-ops.
func (s *Service) ReconcilePayment(ctx context.Context, upd PaymentUpdate) (ReconcileResult, error) {
	outcome := NormalizePaymentStatus(upd.Status)
	if outcome == PaymentUnknown {
		return RECONCILE_IGNORED, nil
	}

	result := RECONCILE_IGNORED
	err := s.store.Transaction(ctx, func(tx Store) error {
		booking, err := tx.GetBooking(ctx, upd.BookingID, true)
		if err != nil {
			return err
		}

		switch types.BookingStatus(booking.Status) {
		case types.BOOKING_PAID:
			result = RECONCILE_ALREADY_PAID
			if booking.PaymentReference == nil && upd.Reference != "" {
				return tx.UpdateBookingStatus(ctx, booking.ID, booking.Status, &upd.Reference, nil)
			}
			if booking.PaymentReference != nil && upd.Reference != "" && *booking.PaymentReference != upd.Reference {
				log.Printf("[Reconcile] Booking %s is paid with %s, ignoring %s\n", booking.ID.String(), *booking.PaymentReference, upd.Reference)
			}
			return nil
		case types.BOOKING_PENDING:
			if outcome == PaymentFailed {
				// A stale session must not fail a booking that moved on to a newer one.
				if booking.PaymentReference != nil && upd.Reference != "" && *booking.PaymentReference != upd.Reference {
					return nil
				}
				result = RECONCILE_FAILED
				return tx.UpdateBookingStatus(ctx, booking.ID, string(types.BOOKING_FAILED), nil, nil)
			}
			ref := booking.PaymentReference
			if upd.Reference != "" {
				ref = &upd.Reference
			}
			paidAt := s.now()
			if err := tx.UpdateBookingStatus(ctx, booking.ID, string(types.BOOKING_PAID), ref, &paidAt); err != nil {
				return err
			}
			result = RECONCILE_PAID
			return nil
		}
		log.Printf("[Reconcile] Booking %s is %s, ignoring status %q\n", booking.ID.String(), booking.Status, upd.Status)
		return nil
	})
	if err != nil {
		return RECONCILE_IGNORED, err
	}

	if result == RECONCILE_PAID || result == RECONCILE_FAILED {
		s.invalidateAvailability(ctx)
	}
	if result == RECONCILE_PAID {
		s.background(func() {
			bctx := context.WithoutCancel(ctx)
			booking, err := s.store.GetBooking(bctx, upd.BookingID, false)
			if err != nil {
				log.Printf("[Reconcile] Could not load booking %s for notification: %s\n", upd.BookingID.String(), err.Error())
				return
			}
			s.notify(bctx, booking)
		})
	}
	return result, nil
}

// PollPaymentStatus serves the client-side completion check. The status the
// client reports is never trusted; the gateway is asked instead.
func (s *Service) PollPaymentStatus(ctx context.Context, id uuid.UUID) (*models.Booking, ReconcileResult, error) {
	booking, err := s.store.GetBooking(ctx, id, false)
	if err != nil {
		return nil, RECONCILE_IGNORED, err
	}
	if booking.Status != string(types.BOOKING_PENDING) || booking.PaymentReference == nil || s.gateway == nil {
		return booking, RECONCILE_IGNORED, nil
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()
	status, err := s.gateway.PaymentStatus(pctx, *booking.PaymentReference)
	if err != nil {
		log.Printf("[Reconcile] Error retrieving payment status for booking %s: %s\n", id.String(), err.Error())
		return booking, RECONCILE_IGNORED, nil
	}

	result, err := s.ReconcilePayment(ctx, PaymentUpdate{
		BookingID: id,
		Reference: *booking.PaymentReference,
		Status:    status,
	})
	if err != nil {
		return booking, result, err
	}
	if result != RECONCILE_IGNORED {
		if fresh, err := s.store.GetBooking(ctx, id, false); err == nil {
			booking = fresh
		}
	}
	return booking, result, nil
}
