package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/backend"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

var errNotGuest = &badRequestError{msg: "Contact details are only used for guest orders."}

// SetContact replaces the contact details of a guest order. They are
// validated on submission.
func (h *Handler) SetContact(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var c order.GuestContact
	fields := map[string]*string{
		"firstName":  &c.FirstName,
		"lastName":   &c.LastName,
		"email":      &c.Email,
		"phone":      &c.Phone,
		"address":    &c.Address,
		"pickupDate": &c.PickupDate,
		"pickupTime": &c.PickupTime,
		"notes":      &c.Notes,
	}
	if err := decodeObject(body, func(d *jx.Decoder, key string) error {
		dst, ok := fields[key]
		if !ok {
			return d.Skip()
		}
		v, err := decodeScalar(d, key)
		*dst = v
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.do(w, r, func(s *session.Session) error {
		if !s.Form.Guest {
			return errNotGuest
		}
		s.Form.Contact = c
		return nil
	})
}

// Submit places the order. On success the form is reset and the receipt
// is returned with the fresh view; on failure nothing changes.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who := caller(r)
	var (
		resp    jx.Encoder
		receipt order.Receipt
	)
	err := h.sessions.Exclusive(ctx, r.PathValue("id"), who, func(s *session.Session) error {
		var err error
		receipt, err = s.Form.Submit(ctx, h.orders, who, s.Catalog)
		if err != nil {
			h.metrics.OrderSubmitted(ctx, submitResult(err))
			return err
		}
		h.metrics.OrderSubmitted(ctx, "success")
		zctx.From(ctx).Info("Order submitted",
			zap.String("session_id", s.ID),
			zap.String("order_id", receipt.OrderID),
		)

		resp.Obj(func(e *jx.Encoder) {
			e.Field("orderId", func(e *jx.Encoder) { e.Str(receipt.OrderID) })
			msg := receipt.Message
			if msg == "" {
				msg = "Order created"
			}
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
			e.Field("session", func(e *jx.Encoder) { encodeSession(e, s) })
		})
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, &resp)
}

func submitResult(err error) string {
	var (
		emptyErr  *order.EmptyCartError
		guestErr  *order.GuestContactError
		rejectErr *backend.RejectionError
	)
	switch {
	case errors.As(err, &emptyErr), errors.As(err, &guestErr):
		return "invalid"
	case errors.As(err, &rejectErr):
		return "rejected"
	default:
		return "error"
	}
}
