package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

var hundred = decimal.NewFromInt(100)

// Tracker holds the coupon code field of an order form together with the
// status of its last check.
type Tracker struct {
	code   string
	status Status
}

// NewTracker returns a tracker with an empty code.
func NewTracker() *Tracker {
	return &Tracker{status: Unapplied{}}
}

// Code returns the current code field.
func (t *Tracker) Code() string { return t.code }

// Status returns the status of the last check.
func (t *Tracker) Status() Status {
	if t.status == nil {
		return Unapplied{}
	}
	return t.status
}

// SetCode updates the code field. Clearing it resets the status.
func (t *Tracker) SetCode(code string) {
	t.code = code
	if strings.TrimSpace(code) == "" {
		t.status = Unapplied{}
	}
}

// Clear empties the code field and resets the status.
func (t *Tracker) Clear() {
	t.code = ""
	t.status = Unapplied{}
}

// Apply validates code against subtotal and replaces the status with the
// result. An empty code resets the status without calling checker.
//
// The returned error is *InvalidError when the backend rejected the code,
// or the checker error when it could not be asked. The status is updated
// in every case.
func (t *Tracker) Apply(ctx context.Context, checker Checker, sess auth.Session, code string, subtotal decimal.Decimal) error {
	t.code = code
	code = strings.TrimSpace(code)
	if code == "" {
		t.status = Unapplied{}
		return nil
	}

	v, err := checker.Check(ctx, sess, code, subtotal)
	if err != nil {
		t.status = Invalid{Message: MsgCheckFailed}
		return errors.Wrap(err, "check coupon")
	}
	if !v.Valid {
		msg := v.Message
		if msg == "" {
			msg = MsgInvalid
		}
		t.status = Invalid{Message: msg}
		return &InvalidError{Code: code, Message: msg}
	}
	if v.Percent == nil {
		t.status = Invalid{Message: MsgMissingDiscount}
		return &InvalidError{Code: code, Message: MsgMissingDiscount}
	}

	t.status = NewValid(code, *v.Percent, v.Raw)
	return nil
}

// DiscountedPrice returns the price after the valid coupon is applied to
// subtotal, or zero when no valid coupon is in effect. It is derived from
// the given subtotal on every call.
func (t *Tracker) DiscountedPrice(subtotal decimal.Decimal) decimal.Decimal {
	v, ok := t.Status().(Valid)
	if !ok {
		return decimal.Zero
	}
	return Discount(subtotal, v.Percent())
}

// Discount returns subtotal reduced by percent, rounded to cents half away
// from zero.
func Discount(subtotal, percent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(percent.Div(hundred))
	return round2(subtotal.Mul(factor))
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
