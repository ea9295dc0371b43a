package handler

import (
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/cart"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func encodeService(e *jx.Encoder, s catalog.Service) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
		e.Field("category", func(e *jx.Encoder) { e.Str(s.Category) })
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, s.UnitPrice) })
	})
}

// encodeSession writes the priced view of a session. Totals are derived
// from the current cart and catalog on every call.
func encodeSession(e *jx.Encoder, s *session.Session) {
	f := s.Form
	priced := cart.Price(f.Cart, s.Catalog)
	subtotal := cart.Subtotal(f.Cart, s.Catalog)
	status := f.Coupon.Status()
	discounted := f.Coupon.DiscountedPrice(subtotal)
	final := subtotal
	if _, ok := status.(coupon.Valid); ok {
		final = discounted
	}

	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(s.ID) })
		e.Field("guest", func(e *jx.Encoder) { e.Bool(f.Guest) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range priced {
					encodeLine(e, p)
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, subtotal) })
		e.Field("coupon", func(e *jx.Encoder) { encodeCoupon(e, f.Coupon.Code(), status) })
		e.Field("discountedPrice", func(e *jx.Encoder) { encodeMoney(e, discounted) })
		e.Field("finalTotal", func(e *jx.Encoder) { encodeMoney(e, final) })
		if f.Guest {
			e.Field("contact", func(e *jx.Encoder) { encodeContact(e, f.Contact) })
			e.Field("pickupSlots", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, slot := range order.PickupSlots {
						e.Str(slot)
					}
				})
			})
		}
	})
}

func encodeLine(e *jx.Encoder, p cart.PricedLine) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("index", func(e *jx.Encoder) { e.Int(p.Index) })
		e.Field("serviceId", func(e *jx.Encoder) { e.Str(p.Line.ServiceID) })
		e.Field("quantity", func(e *jx.Encoder) { e.Str(p.Line.Quantity) })
		if p.Service.ID != "" {
			e.Field("serviceName", func(e *jx.Encoder) { e.Str(p.Service.Name) })
			e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, p.Service.UnitPrice) })
		}
		e.Field("lineTotal", func(e *jx.Encoder) { encodeMoney(e, p.LineTotal) })
		e.Field("valid", func(e *jx.Encoder) { e.Bool(p.Contributes) })
	})
}

func encodeCoupon(e *jx.Encoder, code string, status coupon.Status) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(code) })
		e.Field("status", func(e *jx.Encoder) { e.Str(status.Kind()) })
		switch st := status.(type) {
		case coupon.Valid:
			e.Field("discountPercent", func(e *jx.Encoder) { encodeMoney(e, st.Percent()) })
		case coupon.Invalid:
			e.Field("message", func(e *jx.Encoder) { e.Str(st.Message) })
		}
	})
}

func encodeContact(e *jx.Encoder, c order.GuestContact) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("firstName", func(e *jx.Encoder) { e.Str(c.FirstName) })
		e.Field("lastName", func(e *jx.Encoder) { e.Str(c.LastName) })
		e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		e.Field("phone", func(e *jx.Encoder) { e.Str(c.Phone) })
		e.Field("address", func(e *jx.Encoder) { e.Str(c.Address) })
		e.Field("pickupDate", func(e *jx.Encoder) { e.Str(c.PickupDate) })
		e.Field("pickupTime", func(e *jx.Encoder) { e.Str(c.PickupTime) })
		e.Field("notes", func(e *jx.Encoder) { e.Str(c.Notes) })
	})
}
