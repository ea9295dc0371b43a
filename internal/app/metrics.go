package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/xenking/cleanwave-checkout"

// metrics records business events of the checkout service.
type metrics struct {
	couponChecks metric.Int64Counter
	orders       metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider, openSessions func() int) (*metrics, error) {
	meter := mp.Meter(meterName)

	couponChecks, err := meter.Int64Counter("checkout.coupon.checks",
		metric.WithDescription("Coupon validations by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "coupon checks counter")
	}
	orders, err := meter.Int64Counter("checkout.orders.submitted",
		metric.WithDescription("Order submissions by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders counter")
	}
	if _, err := meter.Int64ObservableGauge("checkout.sessions.active",
		metric.WithDescription("Open form sessions"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(openSessions()))
			return nil
		}),
	); err != nil {
		return nil, errors.Wrap(err, "sessions gauge")
	}

	return &metrics{couponChecks: couponChecks, orders: orders}, nil
}

func (m *metrics) CouponChecked(ctx context.Context, result string) {
	m.couponChecks.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *metrics) OrderSubmitted(ctx context.Context, result string) {
	m.orders.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
