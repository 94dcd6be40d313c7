package controllers

import (
	"encoding/json"
	"errors"
	"galabook/src/bookings"
	"galabook/src/models"
	"galabook/src/types"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingsController struct {
	svc *bookings.Service
}

func NewBookingsController(svc *bookings.Service) *BookingsController {
	return &BookingsController{svc: svc}
}

// StatusFor maps booking errors onto HTTP status codes.
func StatusFor(err error) int {
	var verr *bookings.ValidationError
	var ierr *bookings.InventoryError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &ierr):
		return http.StatusConflict
	case bookings.IsVoucherError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, bookings.ErrDuplicatePending):
		return http.StatusTooManyRequests
	case errors.Is(err, bookings.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, bookings.ErrBookingNotDeletable):
		return http.StatusConflict
	case errors.Is(err, bookings.ErrPaymentConfiguration), errors.Is(err, bookings.ErrInventoryNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, bookings.ErrPaymentGateway):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func bookingID(ctx *gin.Context) (uuid.UUID, error) {
	var params types.BookingURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(params.ID)
}

// CreateBooking may return a non-nil result together with an error, e.g. a
// PENDING booking whose payment session could not be created. The body is
// only decoded here; the service normalizes and validates it.
func (c *BookingsController) CreateBooking(ctx *gin.Context) (*bookings.Result, int, error) {
	var body types.CreateBookingRequestBody
	if err := json.NewDecoder(ctx.Request.Body).Decode(&body); err != nil {
		return nil, http.StatusBadRequest, decodeError(err)
	}
	result, err := c.svc.CreateBooking(ctx.Request.Context(), body)
	if err != nil {
		return result, StatusFor(err), err
	}
	if result.Duplicate {
		return result, http.StatusOK, nil
	}
	return result, http.StatusCreated, nil
}

func decodeError(err error) *bookings.ValidationError {
	var terr *json.UnmarshalTypeError
	if errors.As(err, &terr) && terr.Field != "" {
		return &bookings.ValidationError{Field: terr.Field, Message: "has the wrong type"}
	}
	return &bookings.ValidationError{Message: "request body must be a JSON object"}
}

func (c *BookingsController) GetBooking(ctx *gin.Context) (*models.Booking, int, error) {
	id, err := bookingID(ctx)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	booking, err := c.svc.GetBooking(ctx.Request.Context(), id)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return booking, http.StatusOK, nil
}

// PaymentStatus checks a returning buyer's booking against the gateway.
// Whatever status the client sends is only logged by the caller.
func (c *BookingsController) PaymentStatus(ctx *gin.Context) (*models.Booking, bookings.ReconcileResult, int, error) {
	id, err := bookingID(ctx)
	if err != nil {
		return nil, bookings.RECONCILE_IGNORED, http.StatusBadRequest, err
	}
	var body types.PaymentStatusRequestBody
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&body); err != nil {
			return nil, bookings.RECONCILE_IGNORED, http.StatusBadRequest, err
		}
	}
	booking, result, err := c.svc.PollPaymentStatus(ctx.Request.Context(), id)
	if err != nil {
		return nil, result, StatusFor(err), err
	}
	return booking, result, http.StatusOK, nil
}

func (c *BookingsController) Availability(ctx *gin.Context) (*bookings.Availability, int, error) {
	a, err := c.svc.Availability(ctx.Request.Context())
	if err != nil {
		return nil, StatusFor(err), err
	}
	return &a, http.StatusOK, nil
}

func (c *BookingsController) ListBookings(ctx *gin.Context) ([]models.Booking, int, error) {
	var q types.BookingQueryFilters
	if err := ctx.ShouldBindQuery(&q); err != nil {
		return nil, http.StatusBadRequest, err
	}
	list, err := c.svc.ListBookings(ctx.Request.Context(), bookings.BookingFilter{
		Status: q.Status,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		return nil, StatusFor(err), err
	}
	return list, http.StatusOK, nil
}

func (c *BookingsController) DeleteBooking(ctx *gin.Context) (int, error) {
	id, err := bookingID(ctx)
	if err != nil {
		return http.StatusBadRequest, err
	}
	if err := c.svc.DeletePendingBooking(ctx.Request.Context(), id); err != nil {
		return StatusFor(err), err
	}
	return http.StatusNoContent, nil
}

func (c *BookingsController) InventorySettings(ctx *gin.Context) (*models.InventorySetting, int, error) {
	settings, err := c.svc.InventorySettings(ctx.Request.Context())
	if err != nil {
		return nil, StatusFor(err), err
	}
	return settings, http.StatusOK, nil
}

func (c *BookingsController) UpdateInventorySettings(ctx *gin.Context) (*models.InventorySetting, int, error) {
	var body types.InventorySettingsRequestBody
	if err := json.NewDecoder(ctx.Request.Body).Decode(&body); err != nil {
		return nil, http.StatusBadRequest, decodeError(err)
	}
	settings, err := c.svc.UpdateInventorySettings(ctx.Request.Context(), body)
	if err != nil {
		return nil, StatusFor(err), err
	}
	return settings, http.StatusOK, nil
}
