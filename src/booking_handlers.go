package main

import (
	"errors"
	"galabook/src/bookings"
	"galabook/src/controllers"
	"galabook/src/models"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// errorBody renders err with the details a client can act on.
func errorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var verr *bookings.ValidationError
	var ierr *bookings.InventoryError
	switch {
	case errors.As(err, &verr):
		if verr.Field != "" {
			body["field"] = verr.Field
		}
	case errors.As(err, &ierr):
		body["pool"] = ierr.Pool
		body["remaining"] = max(ierr.Remaining, 0)
		body["requested"] = ierr.Requested
	}
	return body
}

// bookingSummary is the public view of a booking, without buyer details.
func bookingSummary(b *models.Booking) gin.H {
	return gin.H{
		"id":             b.ID,
		"type":           b.Type,
		"category":       b.Category,
		"quantity":       b.Quantity,
		"status":         b.Status,
		"total_amount":   b.TotalAmount,
		"balance_due":    b.BalanceDue,
		"currency":       b.Currency,
		"member_pricing": b.MemberPricing,
		"paid_at":        b.PaidAt,
	}
}

func bookingHandlers(g *gin.RouterGroup, c *controllers.BookingsController) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			result, status, err := c.CreateBooking(ctx)
			if err != nil {
				body := errorBody(err)
				if result != nil && result.Booking != nil {
					body["booking_id"] = result.Booking.ID
				}
				if status >= http.StatusInternalServerError {
					log.Printf("[Bookings] Error creating booking: %s\n", err.Error())
				}
				ctx.JSON(status, body)
				return
			}
			ctx.JSON(status, gin.H{
				"data": gin.H{
					"booking":      bookingSummary(result.Booking),
					"redirect_url": result.RedirectURL,
					"duplicate":    result.Duplicate,
					"free":         result.Free,
				},
			})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			booking, status, err := c.GetBooking(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookingSummary(booking)})
		}).
		POST("/bookings/:id/payment-status", func(ctx *gin.Context) {
			booking, result, status, err := c.PaymentStatus(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookingSummary(booking), "result": result})
		}).
		GET("/availability", func(ctx *gin.Context) {
			availability, status, err := c.Availability(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": availability})
		})
	return g
}
