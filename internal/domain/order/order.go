package order

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

// Line is a priced snapshot of one contributing cart line.
type Line struct {
	ServiceID   string
	ServiceName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// AppliedCoupon describes the discount attached to a submission.
type AppliedCoupon struct {
	Code            string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	OriginalPrice   decimal.Decimal
}

// Submission is the order payload sent to the backend. Prices are captured
// from the catalog at the time it is built.
type Submission struct {
	// IdempotencyKey identifies one submission attempt.
	IdempotencyKey string
	Lines          []Line
	Subtotal       decimal.Decimal
	FinalTotal     decimal.Decimal
	// Coupon is set only when a valid coupon is in effect.
	Coupon *AppliedCoupon
	// Guest is set only for guest orders.
	Guest *GuestContact
}

// Receipt is the backend acknowledgement of a created order.
type Receipt struct {
	OrderID string
	Message string
	Raw     []byte
}

// Submitter hands a submission to the order endpoint.
type Submitter interface {
	Submit(ctx context.Context, sess auth.Session, sub Submission) (Receipt, error)
}

// EmptyCartError indicates that no cart line has a known service and a
// positive quantity.
type EmptyCartError struct {
	Lines int
}

func (e *EmptyCartError) Error() string {
	return "select at least one service with a quantity greater than 0"
}
