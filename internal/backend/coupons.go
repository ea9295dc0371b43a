package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
)

const opValidateCoupon = "validate coupon"

var _ coupon.Checker = (*Client)(nil)

// Check asks the backend whether code applies to amount.
//
// A success response is turned into a verdict. So is a client error status
// carrying a message, which is how the backend reports unknown or expired
// codes. Anything else is a *TransportError.
func (c *Client) Check(ctx context.Context, sess auth.Session, code string, amount decimal.Decimal) (coupon.Verdict, error) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(code) })
		e.Field("amount", func(e *jx.Encoder) { encodeDecimal(e, amount) })
	})

	resp, err := c.do(ctx, opValidateCoupon, http.MethodPost, c.paths.ValidateCoupon, sess, e.Bytes(), nil)
	if err != nil {
		return coupon.Verdict{}, err
	}

	env, decodeErr := decodeEnvelope(resp.Body)
	switch {
	case resp.success() && decodeErr == nil:
	case resp.Status >= 400 && resp.Status < 500 && decodeErr == nil && env.Message != "":
		return coupon.Verdict{Valid: false, Message: env.Message, Raw: resp.Body}, nil
	case decodeErr != nil:
		return coupon.Verdict{}, &TransportError{Op: opValidateCoupon, Status: resp.Status, Err: decodeErr}
	default:
		return coupon.Verdict{}, &TransportError{
			Op:     opValidateCoupon,
			Status: resp.Status,
			Err:    errors.New(http.StatusText(resp.Status)),
		}
	}

	v := coupon.Verdict{Message: env.Message, Raw: resp.Body}
	if env.ok() && len(env.Data) > 0 {
		if err := decodeCouponData(env.Data, &v); err != nil {
			return coupon.Verdict{}, &TransportError{Op: opValidateCoupon, Status: resp.Status, Err: err}
		}
	}
	zctx.From(ctx).Debug("Coupon checked",
		zap.String("code", code),
		zap.Bool("valid", v.Valid),
	)
	return v, nil
}

func decodeCouponData(data jx.Raw, v *coupon.Verdict) error {
	if data.Type() != jx.Object {
		return nil
	}
	return jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "is_valid", "isValid", "valid":
			ok, err := decodeBool(d)
			if err != nil {
				return errors.Wrap(err, "decode is_valid")
			}
			v.Valid = ok
		case "discount_percent", "discountPercent":
			if d.Next() == jx.Null {
				return d.Null()
			}
			p, err := decodeDecimal(d)
			if err != nil {
				return errors.Wrap(err, "decode discount_percent")
			}
			v.Percent = &p
		case "message":
			msg, err := decodeOptionalStr(d)
			if err != nil {
				return err
			}
			if msg != "" {
				v.Message = msg
			}
		default:
			return d.Skip()
		}
		return nil
	})
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}
