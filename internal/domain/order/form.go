package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/cart"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
)

// Form is the state of one order form: the cart, the coupon field and,
// for guest orders, the contact details.
type Form struct {
	Cart    *cart.Cart
	Coupon  *coupon.Tracker
	Guest   bool
	Contact GuestContact

	now   func() time.Time
	newID func() string
}

// NewForm returns an empty form.
func NewForm(guest bool) *Form {
	return &Form{
		Cart:   cart.New(),
		Coupon: coupon.NewTracker(),
		Guest:  guest,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Subtotal prices the cart against cat.
func (f *Form) Subtotal(cat catalog.Catalog) decimal.Decimal {
	return cart.Subtotal(f.Cart, cat)
}

// Build assembles the submission for the current form state.
func (f *Form) Build(cat catalog.Catalog) (Submission, error) {
	if !cart.HasContributingLine(f.Cart, cat) {
		return Submission{}, &EmptyCartError{Lines: f.Cart.Len()}
	}

	var sub Submission
	for _, p := range cart.Price(f.Cart, cat) {
		if !p.Contributes {
			continue
		}
		sub.Lines = append(sub.Lines, Line{
			ServiceID:   p.Service.ID,
			ServiceName: p.Service.Name,
			Quantity:    p.Quantity,
			UnitPrice:   p.Service.UnitPrice,
			LineTotal:   p.LineTotal,
		})
		sub.Subtotal = sub.Subtotal.Add(p.LineTotal)
	}
	sub.FinalTotal = sub.Subtotal
	if v, ok := f.Coupon.Status().(coupon.Valid); ok {
		final := coupon.Discount(sub.Subtotal, v.Percent())
		sub.Coupon = &AppliedCoupon{
			Code:            v.Code(),
			DiscountPercent: v.Percent(),
			DiscountAmount:  sub.Subtotal.Sub(final),
			OriginalPrice:   sub.Subtotal,
		}
		sub.FinalTotal = final
	}

	if f.Guest {
		if err := f.Contact.Validate(f.now()); err != nil {
			return Submission{}, err
		}
		contact := f.Contact
		sub.Guest = &contact
	}

	return sub, nil
}

// Submit builds the submission and sends it. Local validation failures
// are returned before any call is made. On success the form is reset;
// on failure it is left as is.
func (f *Form) Submit(ctx context.Context, s Submitter, sess auth.Session, cat catalog.Catalog) (Receipt, error) {
	sub, err := f.Build(cat)
	if err != nil {
		return Receipt{}, err
	}
	sub.IdempotencyKey = f.newID()
	if f.Guest {
		sess = auth.Anonymous()
	}

	r, err := s.Submit(ctx, sess, sub)
	if err != nil {
		return Receipt{}, errors.Wrap(err, "submit order")
	}

	f.Reset()
	return r, nil
}

// Reset returns the form to its initial state.
func (f *Form) Reset() {
	f.Cart.Reset()
	f.Coupon.Clear()
	f.Contact = GuestContact{}
}
