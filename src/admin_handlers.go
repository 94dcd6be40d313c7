package main

import (
	"galabook/src/bookings"
	"galabook/src/controllers"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func adminHandlers(g *gin.RouterGroup, c *controllers.BookingsController, svc *bookings.Service) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			list, status, err := c.ListBookings(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": list, "count": len(list)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			booking, status, err := c.GetBooking(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			status, err := c.DeleteBooking(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			log.Printf("[Admin] %s deleted booking %s\n", ctx.GetString("username"), ctx.Param("id"))
			ctx.Status(status)
		}).
		GET("/inventory", func(ctx *gin.Context) {
			settings, status, err := c.InventorySettings(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": settings})
		}).
		PUT("/inventory", func(ctx *gin.Context) {
			settings, status, err := c.UpdateInventorySettings(ctx)
			if err != nil {
				ctx.JSON(status, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": settings})
		}).
		POST("/jobs/reconcile-dependents", func(ctx *gin.Context) {
			n, err := svc.ReconcileDependents(ctx.Request.Context())
			if err != nil {
				log.Printf("[Admin] reconcile-dependents failed: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"repaired": n})
		}).
		POST("/jobs/expire-pending", func(ctx *gin.Context) {
			n, err := svc.ExpireStalePending(ctx.Request.Context())
			if err != nil {
				log.Printf("[Admin] expire-pending failed: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, errorBody(err))
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"expired": n})
		})
	return g
}
