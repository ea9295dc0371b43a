package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/cleanwave-checkout/internal/backend"
	"github.com/xenking/cleanwave-checkout/internal/domain/cart"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

// User-facing messages for failures without a more specific text.
const (
	msgUnreachable = "The laundry service could not be reached. Please try again."
	msgOrderFailed = "Failed to place the order. Please try again."
	msgInternal    = "Something went wrong. Please try again."
)

type badRequestError struct {
	msg string
	err error
}

func (e *badRequestError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *badRequestError) Unwrap() error { return e.err }

// userMessage maps err to a response status and a message that can be
// shown to the user as is.
func userMessage(err error) (int, string) {
	var (
		badReq    *badRequestError
		idxErr    *cart.IndexError
		emptyErr  *order.EmptyCartError
		guestErr  *order.GuestContactError
		couponErr *coupon.InvalidError
		rejectErr *backend.RejectionError
		transErr  *backend.TransportError
	)
	switch {
	case errors.As(err, &badReq):
		return http.StatusBadRequest, badReq.msg
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "Order form not found or expired."
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict, "Your previous request is still being processed."
	case errors.Is(err, session.ErrLimit):
		return http.StatusServiceUnavailable, "Too many open order forms. Please try again later."
	case errors.As(err, &idxErr):
		return http.StatusNotFound, fmt.Sprintf("Line %d does not exist.", idxErr.Index)
	case errors.Is(err, cart.ErrLastLine):
		return http.StatusConflict, "An order needs at least one line."
	case errors.As(err, &emptyErr):
		return http.StatusUnprocessableEntity, "Please select at least one service with a quantity greater than 0."
	case errors.As(err, &guestErr):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Field %s %s.", guestErr.Field, guestErr.Reason)
	case errors.As(err, &couponErr):
		return http.StatusUnprocessableEntity, couponErr.Message
	case errors.As(err, &rejectErr):
		msg := rejectErr.Message
		if msg == "" {
			msg = msgOrderFailed
		}
		if rejectErr.Status >= 400 && rejectErr.Status < 500 {
			return http.StatusUnprocessableEntity, msg
		}
		return http.StatusBadGateway, msg
	case errors.As(err, &transErr):
		return http.StatusBadGateway, msgUnreachable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, msgUnreachable
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
