package bookings

import (
	"context"
	"galabook/src/models"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence boundary of the booking core. Implementations
// must run Transaction callbacks atomically, and LockInventorySettings must
// serialize concurrent transactions that call it.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	InventorySettings(ctx context.Context) (*models.InventorySetting, error)
	LockInventorySettings(ctx context.Context) (*models.InventorySetting, error)
	SaveInventorySettings(ctx context.Context, settings *models.InventorySetting) error
	LockedCounts(ctx context.Context) (LockedCounts, error)

	FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error)
	// RedeemVoucher increments the redemption counter only while it is below
	// the cap and reports whether it did.
	RedeemVoucher(ctx context.Context, id uint) (bool, error)

	UpsertBuyer(ctx context.Context, buyer *models.Buyer) error

	RecentBookings(ctx context.Context, q DuplicateQuery) ([]models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateTable(ctx context.Context, table *models.Table) error
	CreateInviteCodes(ctx context.Context, codes []*models.InviteCode) error
	AttachPayment(ctx context.Context, id uuid.UUID, reference, url string) error
	// GetBooking loads a booking with its buyer, table and invite codes. A
	// locked read takes a row lock and skips the associations.
	GetBooking(ctx context.Context, id uuid.UUID, lock bool) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, reference *string, paidAt *time.Time) error
	DeleteTable(ctx context.Context, bookingID uuid.UUID) error
	DeleteInviteCodes(ctx context.Context, bookingID uuid.UUID) error
	DeleteBooking(ctx context.Context, id uuid.UUID) error

	ListBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error)
	BookingsMissingDependents(ctx context.Context, limit int) ([]models.Booking, error)
	StalePendingBookings(ctx context.Context, before time.Time, limit int) ([]models.Booking, error)
}

type DuplicateQuery struct {
	BuyerID  uint
	Type     string
	Quantity int
	Since    time.Time
}

type BookingFilter struct {
	Status string
	Limit  int
	Offset int
}

type PaymentRequest struct {
	Amount      float64
	Currency    string
	BuyerEmail  string
	BuyerName   string
	ReferenceID string
	Description string
	RedirectURL string
	CancelURL   string
	WebhookURL  string
}

type PaymentSession struct {
	RedirectURL string
	Reference   string
}

// PaymentGateway creates hosted payment sessions. Errors caused by local
// configuration must wrap ErrPaymentConfiguration.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
	PaymentStatus(ctx context.Context, reference string) (string, error)
	// ResumeURL returns the checkout URL of a session that can still be
	// paid, or "" when it cannot.
	ResumeURL(ctx context.Context, reference string) (string, error)
}

type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *models.Booking) error
}

type MembershipVerifier interface {
	Verify(ctx context.Context, number string) (bool, error)
}

// AvailabilityCache holds display copies of availability. It is never
// consulted for a booking decision.
type AvailabilityCache interface {
	Get(ctx context.Context) (*Availability, error)
	Set(ctx context.Context, a Availability) error
	Invalidate(ctx context.Context) error
}
