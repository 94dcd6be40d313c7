package main

import (
	"errors"
	"galabook/src/bookings"
	"galabook/src/lib"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const maxWebhookBody = int64(65536)

// webhookHandlers receives Stripe events. Unverifiable requests get 401.
// Verified events are acknowledged unless applying them failed, so Stripe
// only retries what can still succeed.
func webhookHandlers(g *gin.RouterGroup, svc *bookings.Service, secret string, rdb *redis.Client) *gin.RouterGroup {
	g.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody))
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusRequestEntityTooLarge)
			return
		}
		event, err := lib.VerifyWebhook(payload, ctx.GetHeader("Stripe-Signature"), secret)
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
		log.Printf("[StripeEvent] %s %s\n", event.ID, event.Type)

		if lib.WebhookEventProcessed(ctx, rdb, event.ID) {
			ctx.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}

		upd, err := lib.ParseCheckoutEvent(event)
		if err != nil {
			log.Printf("[StripeEvent] %s: %s\n", event.ID, err.Error())
			ctx.JSON(http.StatusOK, gin.H{"received": true, "result": bookings.RECONCILE_IGNORED})
			return
		}
		if upd == nil {
			ctx.JSON(http.StatusOK, gin.H{"received": true, "result": bookings.RECONCILE_IGNORED})
			return
		}

		result, err := svc.ReconcilePayment(ctx.Request.Context(), *upd)
		if errors.Is(err, bookings.ErrBookingNotFound) {
			log.Printf("[StripeEvent] %s refers to unknown booking %s\n", event.ID, upd.BookingID.String())
			ctx.JSON(http.StatusOK, gin.H{"received": true, "result": bookings.RECONCILE_IGNORED})
			return
		}
		if err != nil {
			log.Printf("[StripeEvent] Error applying %s to booking %s: %s\n", event.ID, upd.BookingID.String(), err.Error())
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply event"})
			return
		}
		lib.MarkWebhookEventProcessed(ctx, rdb, event.ID)
		ctx.JSON(http.StatusOK, gin.H{"received": true, "result": result})
	})
	return g
}
