package bookings

import (
	"context"
	"fmt"
	"galabook/src/models"
	"log"
	"strings"
	"time"
)

const (
	DefaultDuplicateWindow = 60 * time.Second
	DefaultPaymentTimeout  = 15 * time.Second
)

type Options struct {
	AppHost                string
	APIHost                string
	Currency               string
	PaymentTimeout         time.Duration
	DuplicateWindow        time.Duration
	BundleEligibleCuisines []string
	// StalePendingAfter enables expiry of unpaid bookings when non-zero.
	StalePendingAfter time.Duration
}

type Dependencies struct {
	Store    Store
	Gateway  PaymentGateway
	Notifier Notifier
	Members  MembershipVerifier
	Cache    AvailabilityCache
}

type Service struct {
	store    Store
	gateway  PaymentGateway
	notifier Notifier
	members  MembershipVerifier
	cache    AvailabilityCache
	opts     Options

	now        func() time.Time
	background func(fn func())
}

func NewService(deps Dependencies, opts Options) *Service {
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = DefaultDuplicateWindow
	}
	if opts.PaymentTimeout <= 0 {
		opts.PaymentTimeout = DefaultPaymentTimeout
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	opts.AppHost = strings.TrimRight(opts.AppHost, "/")
	opts.APIHost = strings.TrimRight(opts.APIHost, "/")
	return &Service{
		store:      deps.Store,
		gateway:    deps.Gateway,
		notifier:   deps.Notifier,
		members:    deps.Members,
		cache:      deps.Cache,
		opts:       opts,
		now:        time.Now,
		background: func(fn func()) { go fn() },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetBackground replaces how post-response work is scheduled.
func (s *Service) SetBackground(run func(fn func())) {
	s.background = run
}

// Result is what a booking submission resolves to.
type Result struct {
	Booking     *models.Booking `json:"booking"`
	RedirectURL string          `json:"redirect_url,omitempty"`
	Duplicate   bool            `json:"duplicate"`
	Free        bool            `json:"free"`
}

func (s *Service) successURL(b *models.Booking) string {
	return fmt.Sprintf("%s/bookings/%s/success", s.opts.AppHost, b.ID.String())
}

func (s *Service) ManageURL(hash string) string {
	return fmt.Sprintf("%s/manage/%s", s.opts.AppHost, hash)
}

// confirmationURL is where a buyer lands once a booking needs no payment.
func (s *Service) confirmationURL(b *models.Booking) string {
	if b.IsTable() && b.Table != nil {
		return s.ManageURL(b.Table.Hash)
	}
	return s.successURL(b)
}

func (s *Service) paymentReturnURL(b *models.Booking) string {
	return fmt.Sprintf("%s/bookings/%s/payment?session_id={CHECKOUT_SESSION_ID}", s.opts.AppHost, b.ID.String())
}

func (s *Service) paymentCancelURL(b *models.Booking) string {
	return fmt.Sprintf("%s/bookings/%s/payment?status=cancelled", s.opts.AppHost, b.ID.String())
}

func (s *Service) webhookURL() string {
	return fmt.Sprintf("%s/api/v1/webhook/stripe", s.opts.APIHost)
}

func (s *Service) isMember(ctx context.Context, number string) bool {
	if number == "" || s.members == nil {
		return false
	}
	ok, err := s.members.Verify(ctx, number)
	if err != nil {
		log.Printf("[Membership] Could not verify membership number: %s\n", err.Error())
		return false
	}
	return ok
}

// notify sends the confirmation email. Failures are logged only.
func (s *Service) notify(ctx context.Context, b *models.Booking) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BookingConfirmed(ctx, b); err != nil {
		log.Printf("[Notify] Failed to send confirmation for booking %s: %s\n", b.ID.String(), err.Error())
	}
}

func (s *Service) invalidateAvailability(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Printf("[Availability] Error invalidating cache: %s\n", err.Error())
	}
}
