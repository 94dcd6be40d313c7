package boot

import (
	"context"
	"galabook/src/bookings"
	"galabook/src/common"
	"galabook/src/config"
	"galabook/src/db"
	"galabook/src/lib"
	awslib "galabook/src/lib/aws"
	"galabook/src/lib/mailer"
	"galabook/src/models"
	"log"
	"time"

	"gorm.io/gorm"
)

var membership *lib.MembershipDirectory

const (
	reconcileDependentsEvery = 5 * time.Minute
	expirePendingEvery       = 15 * time.Minute
)

// LoadSecrets exports the configured Secrets Manager secret into the
// environment. Values already set locally win.
func LoadSecrets(ctx context.Context) {
	cfg := config.Load()
	if cfg.AWSSecretsID == "" {
		return
	}
	n, err := awslib.LoadSecrets(ctx, cfg.AWSSecretsID)
	if err != nil {
		log.Printf("Could not load secrets from %s: %s\n", cfg.AWSSecretsID, err.Error())
		return
	}
	log.Printf("Loaded %d secret(s) from %s\n", n, cfg.AWSSecretsID)
}

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.Buyer{},
		&models.Voucher{},
		&models.InventorySetting{},
		&models.Booking{},
		&models.Table{},
		&models.InviteCode{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitBookingService(cfg *config.Config, conn *gorm.DB) *bookings.Service {
	deps := bookings.Dependencies{
		Store: db.NewStore(conn),
	}
	if sc := lib.GetStripeClient(); sc != nil {
		deps.Gateway = lib.NewStripeGateway(sc, cfg.AllowInsecurePaymentURLs)
	} else {
		log.Println("STRIPE_SECRET_KEY is not set, paid bookings will be refused")
	}
	if rdb := lib.GetRedisClient(); rdb != nil {
		deps.Cache = lib.NewAvailabilityCache(rdb)
	}
	if cfg.MembershipDatabaseDSN != "" {
		dir, err := lib.OpenMembershipDirectory(cfg.MembershipDatabaseDSN)
		if err != nil {
			log.Printf("Membership directory unavailable, member pricing disabled: %s\n", err.Error())
		} else {
			membership = dir
			deps.Members = dir
		}
	}

	svc := bookings.NewService(deps, bookings.Options{
		AppHost:                cfg.AppHost,
		APIHost:                cfg.APIHost,
		Currency:               cfg.Currency,
		PaymentTimeout:         cfg.PaymentTimeout,
		DuplicateWindow:        cfg.DuplicateWindow,
		BundleEligibleCuisines: cfg.BundleEligibleCuisines,
		StalePendingAfter:      cfg.PendingExpiry,
	})
	svc.SetNotifier(mailer.NewBookingNotifier(
		mailer.NewDispatcher(cfg.EmailTransport, cfg.EmailQueue),
		mailer.NotifierOptions{
			From:         cfg.EmailFrom,
			FromName:     cfg.EmailFromName,
			QRCodeBucket: cfg.QRCodeBucket,
			ManageURL:    svc.ManageURL,
		},
	))
	return svc
}

func InitScheduler(svc *bookings.Service, cfg *config.Config) {
	if _, err := lib.CreateCronJob("reconcile-dependents", func() {
		n, err := svc.ReconcileDependents(context.Background())
		if err != nil {
			log.Printf("[Jobs] reconcile-dependents failed: %s\n", err.Error())
			return
		}
		if n > 0 {
			log.Printf("[Jobs] reconcile-dependents repaired %d booking(s)\n", n)
		}
	}, reconcileDependentsEvery); err != nil {
		log.Printf("Error scheduling reconcile-dependents: %s\n", err.Error())
	}
	if cfg.PendingExpiry > 0 {
		if _, err := lib.CreateCronJob("expire-stale-pending", func() {
			n, err := svc.ExpireStalePending(context.Background())
			if err != nil {
				log.Printf("[Jobs] expire-stale-pending failed: %s\n", err.Error())
				return
			}
			if n > 0 {
				log.Printf("[Jobs] expire-stale-pending marked %d booking(s) FAILED\n", n)
			}
		}, expirePendingEvery); err != nil {
			log.Printf("Error scheduling expire-stale-pending: %s\n", err.Error())
		}
	}
	lib.StartScheduler()
}

func StopScheduler() {
	lib.StopScheduler()
}

// Close stops background jobs and releases database handles.
func Close() {
	StopScheduler()
	if membership != nil {
		if err := membership.Close(); err != nil {
			log.Printf("Error closing membership directory: %s\n", err.Error())
		}
	}
	if sqlDB, err := db.GetDb().DB(); err == nil {
		sqlDB.Close()
	}
}

// InitConsumers starts the email queue worker when emails are queued.
func InitConsumers(ctx context.Context, cfg *config.Config) {
	if cfg.EmailTransport != mailer.TRANSPORT_SQS {
		return
	}
	common.SQSConsumers(ctx, cfg.EmailQueue)
}
