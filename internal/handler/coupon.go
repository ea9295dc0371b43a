package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/cart"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

// ApplyCoupon validates {"code": "..."} against the current subtotal.
//
// A rejected code or an unreachable backend is not an HTTP error: the
// session view carries the invalid status and its message.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var code string
	if err := decodeObject(body, func(d *jx.Decoder, key string) error {
		if key != "code" {
			return d.Skip()
		}
		v, err := decodeScalar(d, "code")
		code = v
		return err
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	who := caller(r)
	var view jx.Encoder
	err = h.sessions.Exclusive(ctx, r.PathValue("id"), who, func(s *session.Session) error {
		subtotal := cart.Subtotal(s.Form.Cart, s.Catalog)
		applyErr := s.Form.Coupon.Apply(ctx, h.coupons, who, code, subtotal)

		result := s.Form.Coupon.Status().Kind()
		var invalid *coupon.InvalidError
		switch {
		case applyErr == nil:
		case errors.As(applyErr, &invalid):
			zctx.From(ctx).Debug("Coupon rejected", zap.String("code", invalid.Code), zap.String("reason", invalid.Message))
		default:
			result = "error"
			zctx.From(ctx).Warn("Coupon check failed", zap.Error(applyErr))
		}
		if result != "unapplied" {
			h.metrics.CouponChecked(ctx, result)
		}

		encodeSession(&view, s)
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &view)
}

// ClearCoupon empties the coupon field.
func (h *Handler) ClearCoupon(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, func(s *session.Session) error {
		s.Form.Coupon.Clear()
		return nil
	})
}
