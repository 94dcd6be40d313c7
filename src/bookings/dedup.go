package bookings

import (
	"context"
	"galabook/src/models"
	"galabook/src/types"
	"log"
)

// findDuplicate picks the newest candidate whose total matches. Candidates
// are expected newest first.
func findDuplicate(candidates []models.Booking, total float64) *models.Booking {
	for i := range candidates {
		if sameAmount(candidates[i].TotalAmount, total) {
			b := candidates[i]
			return &b
		}
	}
	return nil
}

// resolveDuplicate turns a prior matching booking into the response for a
// resubmission, or ErrDuplicatePending when there is nothing to send the
// buyer to yet.
func (s *Service) resolveDuplicate(ctx context.Context, existing *models.Booking, free bool) (*Result, error) {
	if existing.Status == string(types.BOOKING_PAID) || free {
		return &Result{Booking: existing, RedirectURL: s.confirmationURL(existing), Duplicate: true, Free: free}, nil
	}
	if existing.PaymentReference != nil {
		if existing.PaymentURL != nil && *existing.PaymentURL != "" {
			return &Result{Booking: existing, RedirectURL: *existing.PaymentURL, Duplicate: true}, nil
		}
		if url := s.resumePayment(ctx, existing); url != "" {
			return &Result{Booking: existing, RedirectURL: url, Duplicate: true}, nil
		}
	}
	return &Result{Booking: existing, Duplicate: true}, ErrDuplicatePending
}

// resumePayment asks the gateway for the checkout URL of a session whose
// URL was never stored, and saves it when one is still open.
func (s *Service) resumePayment(ctx context.Context, b *models.Booking) string {
	if s.gateway == nil {
		return ""
	}
	pctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()
	url, err := s.gateway.ResumeURL(pctx, *b.PaymentReference)
	if err != nil {
		log.Printf("[Dedup] Could not look up payment session for booking %s: %s\n", b.ID.String(), err.Error())
		return ""
	}
	if url == "" {
		return ""
	}
	if err := s.store.AttachPayment(ctx, b.ID, *b.PaymentReference, url); err != nil {
		log.Printf("[Dedup] Error saving payment URL for booking %s: %s\n", b.ID.String(), err.Error())
	}
	b.PaymentURL = &url
	return url
}
