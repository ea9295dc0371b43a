package coupon

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

// Fallback messages used when the backend does not supply one.
const (
	MsgInvalid         = "Invalid coupon code."
	MsgCheckFailed     = "Could not validate the coupon. Please try again."
	MsgMissingDiscount = "Coupon has no discount."
)

// Status is the outcome of the last coupon check. It is one of Unapplied,
// Valid or Invalid.
type Status interface {
	status()
	// Kind returns a short machine-readable name of the status.
	Kind() string
}

// Unapplied means no coupon is in effect.
type Unapplied struct{}

// Valid means the backend accepted the code.
type Valid struct {
	code    string
	percent decimal.Decimal
	raw     []byte
}

// Invalid means the backend rejected the code or could not be asked.
type Invalid struct {
	Message string
}

func (Unapplied) status() {}
func (Valid) status()     {}
func (Invalid) status()   {}

func (Unapplied) Kind() string { return "unapplied" }
func (Valid) Kind() string     { return "valid" }
func (Invalid) Kind() string   { return "invalid" }

// NewValid returns a Valid status for code with the given discount percent.
// The percent is taken as reported by the backend and not clamped.
func NewValid(code string, percent decimal.Decimal, raw []byte) Valid {
	return Valid{code: code, percent: percent, raw: raw}
}

// Code returns the code the backend accepted.
func (v Valid) Code() string { return v.code }

// Percent returns the discount percent.
func (v Valid) Percent() decimal.Decimal { return v.percent }

// Raw returns the backend response the status was derived from.
func (v Valid) Raw() []byte { return v.raw }

// Verdict is the answer of the coupon validation endpoint.
type Verdict struct {
	Valid bool
	// Percent is nil when the backend omitted the discount.
	Percent *decimal.Decimal
	Message string
	Raw     []byte
}

// Checker asks the backend whether code is valid for amount.
// A returned error means the backend could not be asked or answered
// with something other than a verdict.
type Checker interface {
	Check(ctx context.Context, sess auth.Session, code string, amount decimal.Decimal) (Verdict, error)
}

// InvalidError indicates that the backend rejected a coupon code.
type InvalidError struct {
	Code    string
	Message string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Message)
}
