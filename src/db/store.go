package db

import (
	"context"
	"errors"
	"galabook/src/bookings"
	"galabook/src/models"
	"galabook/src/models/scopes"
	"galabook/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres implementation of bookings.Store.
type GormStore struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

var forUpdate = clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: clause.CurrentTable}}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx bookings.Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) InventorySettings(ctx context.Context) (*models.InventorySetting, error) {
	var settings models.InventorySetting
	err := s.conn(ctx).
		Model(&models.InventorySetting{}).
		Order("id asc").
		First(&settings).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bookings.ErrInventoryNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// LockInventorySettings takes a row lock on the settings row. Every booking
// commit goes through it first, so commits run one at a time.
func (s *GormStore) LockInventorySettings(ctx context.Context) (*models.InventorySetting, error) {
	var settings models.InventorySetting
	err := s.conn(ctx).
		Clauses(forUpdate).
		Model(&models.InventorySetting{}).
		Order("id asc").
		First(&settings).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bookings.ErrInventoryNotConfigured
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (s *GormStore) SaveInventorySettings(ctx context.Context, settings *models.InventorySetting) error {
	return s.conn(ctx).Save(settings).Error
}

func (s *GormStore) LockedCounts(ctx context.Context) (bookings.LockedCounts, error) {
	var rows []struct {
		Category string
		Quantity int
	}
	var counts bookings.LockedCounts
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Select("category, COALESCE(SUM(quantity),0) AS quantity").
		Scopes(scopes.WithLockedStatus).
		Group("category").
		Scan(&rows).
		Error
	if err != nil {
		return counts, err
	}
	for _, r := range rows {
		counts.Add(bookings.Pool(r.Category), r.Quantity)
	}
	return counts, nil
}

func (s *GormStore) FindVoucherByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	err := s.conn(ctx).
		Model(&models.Voucher{}).
		Where("UPPER(code) = ?", bookings.NormalizeVoucherCode(code)).
		First(&voucher).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bookings.ErrVoucherNotFound
	}
	if err != nil {
		return nil, err
	}
	return &voucher, nil
}

// RedeemVoucher increments the redemption counter only while it is below
// the cap. It reports false when no row qualified.
func (s *GormStore) RedeemVoucher(ctx context.Context, id uint) (bool, error) {
	res := s.conn(ctx).
		Model(&models.Voucher{}).
		Scopes(scopes.WithID(id)).
		Where("active = ? AND current_redemptions < max_redemptions", true).
		UpdateColumn("current_redemptions", gorm.Expr("current_redemptions + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) UpsertBuyer(ctx context.Context, buyer *models.Buyer) error {
	return s.conn(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "membership_number", "updated_at"}),
		}).
		Create(buyer).
		Error
}

// RecentBookings loads each candidate's table so a resubmitted table
// booking can be sent back to its management page.
func (s *GormStore) RecentBookings(ctx context.Context, q bookings.DuplicateQuery) ([]models.Booking, error) {
	var recent []models.Booking
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Preload("Table").
		Where("buyer_id = ? AND type = ? AND quantity = ?", q.BuyerID, q.Type, q.Quantity).
		Scopes(scopes.WithLockedStatus, scopes.CreatedSince(q.Since)).
		Order("created_at desc").
		Find(&recent).
		Error
	return recent, err
}

func (s *GormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return s.conn(ctx).Omit(clause.Associations).Create(booking).Error
}

func (s *GormStore) CreateTable(ctx context.Context, table *models.Table) error {
	return s.conn(ctx).Create(table).Error
}

func (s *GormStore) CreateInviteCodes(ctx context.Context, codes []*models.InviteCode) error {
	if len(codes) == 0 {
		return nil
	}
	return s.conn(ctx).Create(&codes).Error
}

func (s *GormStore) AttachPayment(ctx context.Context, id uuid.UUID, reference, url string) error {
	return s.conn(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"payment_reference": reference, "payment_url": url}).
		Error
}

// GetBooking loads a booking. A locked read takes a row lock and skips
// associations.
func (s *GormStore) GetBooking(ctx context.Context, id uuid.UUID, lock bool) (*models.Booking, error) {
	var booking models.Booking
	q := s.conn(ctx).Model(&models.Booking{})
	if lock {
		q = q.Clauses(forUpdate)
	} else {
		q = q.Preload("Buyer").Preload("Voucher").Preload("Table").Preload("InviteCodes")
	}
	err := q.Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, bookings.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *GormStore) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, reference *string, paidAt *time.Time) error {
	updates := map[string]any{"status": status}
	if reference != nil {
		updates["payment_reference"] = *reference
	}
	if paidAt != nil {
		updates["paid_at"] = *paidAt
		updates["balance_due"] = 0
	}
	return s.conn(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}

func (s *GormStore) DeleteTable(ctx context.Context, bookingID uuid.UUID) error {
	return s.conn(ctx).Unscoped().Scopes(scopes.WithBookingID(bookingID)).Delete(&models.Table{}).Error
}

func (s *GormStore) DeleteInviteCodes(ctx context.Context, bookingID uuid.UUID) error {
	return s.conn(ctx).Unscoped().Scopes(scopes.WithBookingID(bookingID)).Delete(&models.InviteCode{}).Error
}

func (s *GormStore) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	return s.conn(ctx).Unscoped().Where("id = ?", id).Delete(&models.Booking{}).Error
}

func (s *GormStore) ListBookings(ctx context.Context, f bookings.BookingFilter) ([]models.Booking, error) {
	var list []models.Booking
	q := s.conn(ctx).
		Model(&models.Booking{}).
		Preload("Buyer").
		Order("created_at desc").
		Limit(f.Limit).
		Offset(f.Offset)
	if f.Status != "" {
		q = q.Scopes(scopes.WithStatus(types.BookingStatus(f.Status)))
	}
	err := q.Find(&list).Error
	return list, err
}

func (s *GormStore) BookingsMissingDependents(ctx context.Context, limit int) ([]models.Booking, error) {
	var list []models.Booking
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithLockedStatus).
		Where(`((type = ? AND NOT EXISTS (SELECT 1 FROM tables t WHERE t.booking_id = bookings.id AND t.deleted_at IS NULL))
			OR NOT EXISTS (SELECT 1 FROM invite_codes ic WHERE ic.booking_id = bookings.id AND ic.deleted_at IS NULL))`, string(types.BOOKING_TABLE)).
		Order("created_at asc").
		Limit(limit).
		Find(&list).
		Error
	return list, err
}

func (s *GormStore) StalePendingBookings(ctx context.Context, before time.Time, limit int) ([]models.Booking, error) {
	var list []models.Booking
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithStatus(types.BOOKING_PENDING), scopes.CreatedBefore(before)).
		Order("created_at asc").
		Limit(limit).
		Find(&list).
		Error
	return list, err
}
