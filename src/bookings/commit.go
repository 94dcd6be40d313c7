package bookings

import (
	"context"
	"errors"
	"fmt"
	"galabook/src/models"
	"galabook/src/types"
	"log"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type outcomeKind int

const (
	outcomeCommitted outcomeKind = iota
	outcomeDuplicate
	outcomeInventoryExceeded
)

// commitOutcome is the result of the booking transaction. Only one of its
// pointers is set, matching kind.
type commitOutcome struct {
	kind     outcomeKind
	booking  *models.Booking
	existing *models.Booking
	shortage *InventoryError
}

// CreateBooking runs a booking submission end to end. On a payment gateway
// failure the committed PENDING booking is returned together with the error.
func (s *Service) CreateBooking(ctx context.Context, body types.CreateBookingRequestBody) (*Result, error) {
	req, err := ParseBookingRequest(body, s.opts.BundleEligibleCuisines)
	if err != nil {
		return nil, err
	}

	settings, err := s.store.InventorySettings(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.LockedCounts(ctx)
	if err != nil {
		return nil, err
	}
	if shortage := checkInventory(settings, counts, req.Pool, req.Quantity); shortage != nil {
		return nil, shortage
	}

	var voucher *models.Voucher
	if req.VoucherCode != "" {
		voucher, err = s.store.FindVoucherByCode(ctx, req.VoucherCode)
		if err != nil {
			return nil, err
		}
		if err := usable(voucher, s.now()); err != nil {
			return nil, err
		}
	}
	member := s.isMember(ctx, req.MembershipNumber)
	quote := Price(settings, PriceInput{
		Pool:          req.Pool,
		Quantity:      req.Quantity,
		Member:        member,
		BundleApplied: req.TableDiscountApplied,
		Voucher:       voucher,
	})

	buyer := &models.Buyer{
		Email:            req.Email,
		Name:             req.Name,
		Phone:            optional(req.Phone),
		MembershipNumber: optional(req.MembershipNumber),
	}
	if err := s.store.UpsertBuyer(ctx, buyer); err != nil {
		return nil, err
	}

	dq := DuplicateQuery{
		BuyerID:  buyer.ID,
		Type:     string(req.Type),
		Quantity: req.Quantity,
		Since:    s.now().Add(-s.opts.DuplicateWindow),
	}
	recent, err := s.store.RecentBookings(ctx, dq)
	if err != nil {
		return nil, err
	}
	if existing := findDuplicate(recent, quote.Total); existing != nil {
		return s.resolveDuplicate(ctx, existing, quote.Free())
	}

	// A resubmission is answered above even when it used up the voucher, so
	// the cap is only enforced for new bookings.
	if voucher != nil && voucher.CurrentRedemptions >= voucher.MaxRedemptions {
		return nil, ErrVoucherExhausted
	}

	draft := &models.Booking{
		Type:                 string(req.Type),
		TableCapacity:        req.TableCapacity,
		Category:             string(req.Pool),
		Quantity:             req.Quantity,
		TotalAmount:          quote.Total,
		BalanceDue:           quote.Total,
		TransactionFee:       0,
		Currency:             currencyOf(settings, s.opts.Currency),
		Status:               string(types.BOOKING_PENDING),
		BuyerID:              buyer.ID,
		Cuisines:             types.NewJSONBArray(req.Cuisines),
		MembershipNumber:     optional(req.MembershipNumber),
		MemberPricing:        member,
		TableDiscountApplied: req.TableDiscountApplied,
	}
	if voucher != nil {
		draft.VoucherID = &voucher.ID
	}

	outcome, err := s.commit(ctx, draft, voucher, req.Pool, dq, buyer.Name)
	if err != nil {
		return nil, err
	}
	switch outcome.kind {
	case outcomeDuplicate:
		return s.resolveDuplicate(ctx, outcome.existing, quote.Free())
	case outcomeInventoryExceeded:
		return nil, outcome.shortage
	}

	booking := outcome.booking
	booking.Buyer = buyer
	s.invalidateAvailability(ctx)

	if booking.Status == string(types.BOOKING_PAID) {
		s.notify(ctx, booking)
		return &Result{Booking: booking, RedirectURL: s.confirmationURL(booking), Free: true}, nil
	}
	return s.startPayment(ctx, booking)
}

// commit re-checks duplicates and inventory against committed state and
// persists the booking, the voucher redemption, the table and the invite
// codes in one transaction.
func (s *Service) commit(ctx context.Context, draft *models.Booking, voucher *models.Voucher, pool Pool, dq DuplicateQuery, buyerName string) (commitOutcome, error) {
	var out commitOutcome
	err := s.store.Transaction(ctx, func(tx Store) error {
		settings, err := tx.LockInventorySettings(ctx)
		if err != nil {
			return err
		}

		recent, err := tx.RecentBookings(ctx, dq)
		if err != nil {
			return err
		}
		if existing := findDuplicate(recent, draft.TotalAmount); existing != nil {
			out = commitOutcome{kind: outcomeDuplicate, existing: existing}
			return nil
		}

		counts, err := tx.LockedCounts(ctx)
		if err != nil {
			return err
		}
		if shortage := checkInventory(settings, counts, pool, draft.Quantity); shortage != nil {
			out = commitOutcome{kind: outcomeInventoryExceeded, shortage: shortage}
			return nil
		}

		booking := *draft
		booking.ID = uuid.New()
		booking.CreatedAt = s.now()
		if booking.TotalAmount == 0 {
			paidAt := s.now()
			booking.Status = string(types.BOOKING_PAID)
			booking.BalanceDue = 0
			booking.PaidAt = &paidAt
		}
		if err := tx.CreateBooking(ctx, &booking); err != nil {
			return err
		}

		if voucher != nil {
			redeemed, err := tx.RedeemVoucher(ctx, voucher.ID)
			if err != nil {
				return err
			}
			if !redeemed {
				return ErrVoucherExhausted
			}
		}

		if err := createDependents(ctx, tx, &booking, buyerName); err != nil {
			return err
		}
		out = commitOutcome{kind: outcomeCommitted, booking: &booking}
		return nil
	})
	return out, err
}

// createDependents adds whatever table and invite codes booking is missing.
func createDependents(ctx context.Context, tx Store, booking *models.Booking, buyerName string) error {
	if booking.IsTable() && booking.Table == nil {
		hash, err := newTableHash()
		if err != nil {
			return err
		}
		table := &models.Table{
			BookingID: booking.ID,
			Name:      slug.Make(fmt.Sprintf("%s %s", buyerName, hash[:6])),
			Capacity:  booking.TableCapacity,
			Units:     booking.Quantity,
			Hash:      hash,
			Status:    string(types.TABLE_RESERVED),
		}
		if err := tx.CreateTable(ctx, table); err != nil {
			return err
		}
		booking.Table = table
	}

	missing := booking.Quantity - len(booking.InviteCodes)
	if missing <= 0 {
		return nil
	}
	codes := make([]*models.InviteCode, 0, missing)
	for range missing {
		code, err := newInviteCode()
		if err != nil {
			return err
		}
		codes = append(codes, &models.InviteCode{
			BookingID: booking.ID,
			Code:      code,
			Status:    string(types.INVITE_UNUSED),
		})
	}
	if err := tx.CreateInviteCodes(ctx, codes); err != nil {
		return err
	}
	booking.InviteCodes = append(booking.InviteCodes, codes...)
	return nil
}

// startPayment opens a gateway session for a committed PENDING booking. A
// failure leaves the booking PENDING without a payment reference.
func (s *Service) startPayment(ctx context.Context, booking *models.Booking) (*Result, error) {
	pending := &Result{Booking: booking}
	if s.gateway == nil {
		return pending, ErrPaymentConfiguration
	}

	pctx, cancel := context.WithTimeout(ctx, s.opts.PaymentTimeout)
	defer cancel()
	session, err := s.gateway.CreatePayment(pctx, PaymentRequest{
		Amount:      booking.TotalAmount,
		Currency:    booking.Currency,
		BuyerEmail:  booking.Buyer.Email,
		BuyerName:   booking.Buyer.Name,
		ReferenceID: booking.ID.String(),
		Description: describeBooking(booking),
		RedirectURL: s.paymentReturnURL(booking),
		CancelURL:   s.paymentCancelURL(booking),
		WebhookURL:  s.webhookURL(),
	})
	if err != nil {
		log.Printf("[Payment] Error creating payment for booking %s: %s\n", booking.ID.String(), err.Error())
		if errors.Is(err, ErrPaymentConfiguration) {
			return pending, err
		}
		return pending, fmt.Errorf("%w: %s", ErrPaymentGateway, err.Error())
	}

	// The gateway reports the booking id back, so a lost reference is
	// backfilled by the reconciler.
	if err := s.store.AttachPayment(ctx, booking.ID, session.Reference, session.RedirectURL); err != nil {
		log.Printf("[Payment] Error saving payment reference for booking %s: %s\n", booking.ID.String(), err.Error())
	} else {
		booking.PaymentReference = &session.Reference
		booking.PaymentURL = &session.RedirectURL
	}
	return &Result{Booking: booking, RedirectURL: session.RedirectURL}, nil
}

func describeBooking(b *models.Booking) string {
	switch Pool(b.Category) {
	case PoolTenSeater:
		return fmt.Sprintf("%d x ten-seater table", b.Quantity)
	case PoolElevenSeater:
		return fmt.Sprintf("%d x eleven-seater table", b.Quantity)
	}
	if b.TableDiscountApplied {
		return fmt.Sprintf("%d x seat (table bundle)", b.Quantity)
	}
	return fmt.Sprintf("%d x seat", b.Quantity)
}

func currencyOf(settings *models.InventorySetting, fallback string) string {
	if settings.Currency != "" {
		return settings.Currency
	}
	return fallback
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
