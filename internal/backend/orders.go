package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
)

const opCreateOrder = "create order"

var _ order.Submitter = (*Client)(nil)

// Submit creates an order. Guest submissions go to the guest endpoint and
// never carry credentials.
func (c *Client) Submit(ctx context.Context, sess auth.Session, sub order.Submission) (order.Receipt, error) {
	path := c.paths.Orders
	if sub.Guest != nil {
		path = c.paths.GuestOrders
		sess = auth.Anonymous()
	}

	var header http.Header
	if sub.IdempotencyKey != "" {
		header = http.Header{"Idempotency-Key": {sub.IdempotencyKey}}
	}
	resp, err := c.do(ctx, opCreateOrder, http.MethodPost, path, sess, encodeSubmission(sub), header)
	if err != nil {
		return order.Receipt{}, err
	}

	env, decodeErr := decodeEnvelope(resp.Body)
	if !resp.success() || (decodeErr == nil && !env.ok()) {
		if decodeErr == nil && (env.Message != "" || resp.success()) {
			return order.Receipt{}, &RejectionError{Op: opCreateOrder, Status: resp.Status, Message: env.Message}
		}
		return order.Receipt{}, &TransportError{
			Op:     opCreateOrder,
			Status: resp.Status,
			Err:    errors.New(http.StatusText(resp.Status)),
		}
	}

	r := order.Receipt{Message: env.Message, Raw: resp.Body}
	if decodeErr == nil && len(env.Data) > 0 {
		r.OrderID = orderID(env.Data)
	}
	zctx.From(ctx).Info("Order created",
		zap.String("order_id", r.OrderID),
		zap.Bool("guest", sub.Guest != nil),
		zap.String("final_total", sub.FinalTotal.String()),
	)
	return r, nil
}

// orderID extracts the order identifier from the response data, if any.
func orderID(data jx.Raw) string {
	if data.Type() != jx.Object {
		return ""
	}
	var id string
	_ = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id", "_id", "order_id", "orderId":
			if id != "" {
				return d.Skip()
			}
			v, err := decodeID(d)
			if err != nil {
				return d.Skip()
			}
			id = v
			return nil
		default:
			return d.Skip()
		}
	})
	return id
}

func encodeSubmission(sub order.Submission) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		if sub.IdempotencyKey != "" {
			e.Field("idempotency_key", func(e *jx.Encoder) { e.Str(sub.IdempotencyKey) })
		}
		e.Field("services", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range sub.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("service_id", func(e *jx.Encoder) { e.Str(l.ServiceID) })
						if l.ServiceName != "" {
							e.Field("service_name", func(e *jx.Encoder) { e.Str(l.ServiceName) })
						}
						e.Field("quantity", func(e *jx.Encoder) { encodeDecimal(e, l.Quantity) })
						e.Field("unit_price", func(e *jx.Encoder) { encodeDecimal(e, l.UnitPrice) })
						e.Field("line_total", func(e *jx.Encoder) { encodeDecimal(e, l.LineTotal) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encodeDecimal(e, sub.Subtotal) })
		e.Field("total_price", func(e *jx.Encoder) { encodeDecimal(e, sub.FinalTotal) })
		if cp := sub.Coupon; cp != nil {
			e.Field("coupon_code", func(e *jx.Encoder) { e.Str(cp.Code) })
			e.Field("discount_percent", func(e *jx.Encoder) { encodeDecimal(e, cp.DiscountPercent) })
			e.Field("discount_amount", func(e *jx.Encoder) { encodeDecimal(e, cp.DiscountAmount) })
			e.Field("original_price", func(e *jx.Encoder) { encodeDecimal(e, cp.OriginalPrice) })
		}
		if g := sub.Guest; g != nil {
			e.Field("first_name", func(e *jx.Encoder) { e.Str(g.FirstName) })
			e.Field("last_name", func(e *jx.Encoder) { e.Str(g.LastName) })
			e.Field("email", func(e *jx.Encoder) { e.Str(g.Email) })
			e.Field("phone", func(e *jx.Encoder) { e.Str(g.Phone) })
			e.Field("address", func(e *jx.Encoder) { e.Str(g.Address) })
			e.Field("pickup_date", func(e *jx.Encoder) { e.Str(g.PickupDate) })
			e.Field("pickup_time", func(e *jx.Encoder) { e.Str(g.PickupTime) })
			if g.Notes != "" {
				e.Field("notes", func(e *jx.Encoder) { e.Str(g.Notes) })
			}
		}
	})
	return e.Bytes()
}
