package bookings

import (
	"context"
	"errors"
	"galabook/src/models"
	"galabook/src/types"
	"log"

	"github.com/google/uuid"
)

const reconcileBatchSize = 100

// DeletePendingBooking removes a PENDING booking with its table and invite
// codes, in that order, in one transaction.
func (s *Service) DeletePendingBooking(ctx context.Context, id uuid.UUID) error {
	err := s.store.Transaction(ctx, func(tx Store) error {
		booking, err := tx.GetBooking(ctx, id, true)
		if err != nil {
			return err
		}
		if booking.Status != string(types.BOOKING_PENDING) {
			return ErrBookingNotDeletable
		}
		if err := tx.DeleteTable(ctx, id); err != nil {
			return err
		}
		if err := tx.DeleteInviteCodes(ctx, id); err != nil {
			return err
		}
		return tx.DeleteBooking(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidateAvailability(ctx)
	return nil
}

func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return s.store.GetBooking(ctx, id, false)
}

func (s *Service) ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	return s.store.ListBookings(ctx, f)
}

// Availability reports what is left per pool, from the cache when possible.
func (s *Service) Availability(ctx context.Context) (Availability, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx)
		if err != nil {
			log.Printf("[Availability] Error reading cache: %s\n", err.Error())
		} else if cached != nil {
			return *cached, nil
		}
	}
	settings, err := s.store.InventorySettings(ctx)
	if err != nil {
		return Availability{}, err
	}
	counts, err := s.store.LockedCounts(ctx)
	if err != nil {
		return Availability{}, err
	}
	a := Snapshot(settings, counts)
	if s.cache != nil {
		if err := s.cache.Set(ctx, a); err != nil {
			log.Printf("[Availability] Error writing cache: %s\n", err.Error())
		}
	}
	return a, nil
}

func (s *Service) InventorySettings(ctx context.Context) (*models.InventorySetting, error) {
	return s.store.InventorySettings(ctx)
}

func (s *Service) UpdateInventorySettings(ctx context.Context, body types.InventorySettingsRequestBody) (*models.InventorySetting, error) {
	if err := validate.Struct(body); err != nil {
		return nil, ValidationErrorFrom(err)
	}
	var saved *models.InventorySetting
	err := s.store.Transaction(ctx, func(tx Store) error {
		current, err := tx.LockInventorySettings(ctx)
		if err != nil && !errors.Is(err, ErrInventoryNotConfigured) {
			return err
		}
		next := &models.InventorySetting{}
		if current != nil {
			next.ID = current.ID
			next.CreatedAt = current.CreatedAt
		}
		next.TotalTables = body.TotalTables
		next.MaxElevenSeaterTables = body.MaxElevenSeaterTables
		next.TablePrice = body.TablePrice
		next.TablePromoPrice = body.TablePromoPrice
		next.TableMemberPrice = body.TableMemberPrice
		next.SeatPrice = body.SeatPrice
		next.SeatPromoPrice = body.SeatPromoPrice
		next.SeatMemberPrice = body.SeatMemberPrice
		next.Currency = body.Currency
		if next.Currency == "" {
			next.Currency = s.opts.Currency
		}
		if err := tx.SaveInventorySettings(ctx, next); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateAvailability(ctx)
	return saved, nil
}

// ReconcileDependents creates tables and invite codes for locked bookings
// that lack them. It is safe to run repeatedly.
func (s *Service) ReconcileDependents(ctx context.Context) (int, error) {
	candidates, err := s.store.BookingsMissingDependents(ctx, reconcileBatchSize)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for i := range candidates {
		id := candidates[i].ID
		err := s.store.Transaction(ctx, func(tx Store) error {
			if _, err := tx.GetBooking(ctx, id, true); err != nil {
				return err
			}
			booking, err := tx.GetBooking(ctx, id, false)
			if err != nil {
				return err
			}
			name := ""
			if booking.Buyer != nil {
				name = booking.Buyer.Name
			}
			return createDependents(ctx, tx, booking, name)
		})
		if err != nil {
			log.Printf("[ReconcileDependents] Booking %s: %s\n", id.String(), err.Error())
			continue
		}
		repaired++
	}
	if repaired > 0 {
		log.Printf("[ReconcileDependents] Repaired %d booking(s)\n", repaired)
	}
	return repaired, nil
}

// ExpireStalePending fails PENDING bookings older than the configured age
// unless the gateway reports them paid.
func (s *Service) ExpireStalePending(ctx context.Context) (int, error) {
	if s.opts.StalePendingAfter <= 0 {
		return 0, nil
	}
	stale, err := s.store.StalePendingBookings(ctx, s.now().Add(-s.opts.StalePendingAfter), reconcileBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, b := range stale {
		status := "expired"
		ref := ""
		if b.PaymentReference != nil {
			ref = *b.PaymentReference
			if s.gateway != nil {
				pctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
				gs, err := s.gateway.PaymentStatus(pctx, ref)
				cancel()
				if err != nil {
					log.Printf("[ExpireStalePending] Skipping booking %s: %s\n", b.ID.String(), err.Error())
					continue
				}
				if NormalizePaymentStatus(gs) == PaymentSucceeded {
					status = gs
				}
			}
		}
		result, err := s.ReconcilePayment(ctx, PaymentUpdate{BookingID: b.ID, Reference: ref, Status: status})
		if err != nil {
			log.Printf("[ExpireStalePending] Booking %s: %s\n", b.ID.String(), err.Error())
			continue
		}
		if result == RECONCILE_FAILED {
			expired++
		}
	}
	return expired, nil
}
