package bookings

import (
	"errors"
	"fmt"
	"galabook/src/types"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const bundleSeats = 10

// BookingRequest is a submission that passed schema validation.
type BookingRequest struct {
	Type                 types.BookingType
	Pool                 Pool
	TableCapacity        int
	Quantity             int
	Name                 string
	Email                string
	Phone                string
	MembershipNumber     string
	VoucherCode          string
	TableDiscountApplied bool
	Cuisines             []string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ParseBookingRequest validates body and returns the normalized request or a
// *ValidationError naming the first offending field. When eligibleCuisines
// is empty the bundle flag is trusted as submitted.
func ParseBookingRequest(body types.CreateBookingRequestBody, eligibleCuisines []string) (BookingRequest, error) {
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	body.Phone = strings.TrimSpace(body.Phone)
	body.MembershipNumber = strings.TrimSpace(body.MembershipNumber)
	body.VoucherCode = NormalizeVoucherCode(body.VoucherCode)
	for i := range body.Cuisines {
		body.Cuisines[i] = strings.TrimSpace(body.Cuisines[i])
	}

	if err := validate.Struct(body); err != nil {
		return BookingRequest{}, ValidationErrorFrom(err)
	}

	kind := types.BookingType(body.Type)
	req := BookingRequest{
		Type:                 kind,
		Quantity:             body.Quantity,
		Name:                 body.Name,
		Email:                body.Email,
		Phone:                body.Phone,
		MembershipNumber:     body.MembershipNumber,
		VoucherCode:          body.VoucherCode,
		TableDiscountApplied: body.TableDiscountApplied,
		Cuisines:             body.Cuisines,
	}

	if kind == types.BOOKING_TABLE {
		if body.TableCapacity == 0 {
			return BookingRequest{}, &ValidationError{Field: "table_capacity", Message: "is required for table bookings"}
		}
		if body.TableDiscountApplied {
			return BookingRequest{}, &ValidationError{Field: "table_discount_applied", Message: "only applies to seat bookings"}
		}
		req.TableCapacity = body.TableCapacity
	}
	req.Pool = PoolFor(kind, req.TableCapacity)

	if kind == types.BOOKING_SEAT {
		if len(body.Cuisines) > 0 && len(body.Cuisines) != body.Quantity {
			return BookingRequest{}, &ValidationError{Field: "cuisines", Message: fmt.Sprintf("must contain one choice per seat (%d)", body.Quantity)}
		}
		if body.TableDiscountApplied {
			if body.Quantity != bundleSeats {
				return BookingRequest{}, &ValidationError{Field: "table_discount_applied", Message: fmt.Sprintf("requires exactly %d seats", bundleSeats)}
			}
			if len(eligibleCuisines) > 0 && !allEligible(body.Cuisines, eligibleCuisines, bundleSeats) {
				return BookingRequest{}, &ValidationError{Field: "cuisines", Message: "are not eligible for the table bundle"}
			}
		}
	}

	return req, nil
}

func allEligible(choices, eligible []string, want int) bool {
	if len(choices) != want {
		return false
	}
	allowed := make(map[string]struct{}, len(eligible))
	for _, c := range eligible {
		allowed[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	for _, c := range choices {
		if _, ok := allowed[strings.ToLower(c)]; !ok {
			return false
		}
	}
	return true
}

// ValidationErrorFrom converts a validator error into a field-scoped
// *ValidationError.
func ValidationErrorFrom(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := fe.Field()
	if ns := fe.Namespace(); strings.Contains(ns, "[") {
		field = ns[strings.Index(ns, ".")+1:]
	}
	return &ValidationError{Field: field, Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "uuid":
		return "must be a valid identifier"
	case "ltefield":
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	}
	return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
}
