package coupon

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

type mockChecker struct {
	verdict Verdict
	err     error

	calls      int
	lastCode   string
	lastAmount decimal.Decimal
	lastSess   auth.Session
}

func (m *mockChecker) Check(_ context.Context, sess auth.Session, code string, amount decimal.Decimal) (Verdict, error) {
	m.calls++
	m.lastCode = code
	m.lastAmount = amount
	m.lastSess = sess
	return m.verdict, m.err
}

func percent(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestTracker_ApplyValid(t *testing.T) {
	checker := &mockChecker{verdict: Verdict{Valid: true, Percent: percent(15), Raw: []byte(`{"success":true}`)}}
	tr := NewTracker()
	sess := auth.Session{Token: "tok"}

	err := tr.Apply(context.Background(), checker, sess, "  SAVE15 ", decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, "SAVE15", checker.lastCode)
	assert.True(t, checker.lastAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, sess, checker.lastSess)

	v, ok := tr.Status().(Valid)
	require.True(t, ok)
	assert.True(t, v.Percent().Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "SAVE15", v.Code())
	assert.Equal(t, `{"success":true}`, string(v.Raw()))
	assert.Equal(t, "  SAVE15 ", tr.Code())

	assert.Equal(t, "85.00", tr.DiscountedPrice(decimal.NewFromInt(100)).StringFixed(2))
	assert.True(t, tr.DiscountedPrice(decimal.NewFromInt(100)).Equal(decimal.RequireFromString("85")))
}

func TestTracker_RecomputesOnSubtotalChange(t *testing.T) {
	checker := &mockChecker{verdict: Verdict{Valid: true, Percent: percent(15)}}
	tr := NewTracker()

	require.NoError(t, tr.Apply(context.Background(), checker, auth.Anonymous(), "SAVE15", decimal.NewFromInt(100)))
	assert.True(t, tr.DiscountedPrice(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(85)))

	got := tr.DiscountedPrice(decimal.NewFromInt(200))
	assert.True(t, got.Equal(decimal.NewFromInt(170)), "got %s", got)
	assert.Equal(t, 1, checker.calls)
}

func TestTracker_ApplyEmptyCode(t *testing.T) {
	for _, code := range []string{"", "   ", "\t\n"} {
		checker := &mockChecker{verdict: Verdict{Valid: true, Percent: percent(50)}}
		tr := NewTracker()
		require.NoError(t, tr.Apply(context.Background(), checker, auth.Anonymous(), "OLD", decimal.NewFromInt(10)))

		require.NoError(t, tr.Apply(context.Background(), checker, auth.Anonymous(), code, decimal.NewFromInt(10)))

		assert.Equal(t, 1, checker.calls, "no call for %q", code)
		assert.Equal(t, Unapplied{}, tr.Status())
		assert.True(t, tr.DiscountedPrice(decimal.NewFromInt(10)).IsZero())
	}
}

func TestTracker_ApplyInvalid(t *testing.T) {
	tests := []struct {
		name    string
		checker *mockChecker
		wantMsg string
		wantErr func(t *testing.T, err error)
	}{
		{
			name:    "ServerMessage",
			checker: &mockChecker{verdict: Verdict{Valid: false, Message: "Coupon expired"}},
			wantMsg: "Coupon expired",
			wantErr: func(t *testing.T, err error) {
				var invErr *InvalidError
				require.True(t, errors.As(err, &invErr))
				assert.Equal(t, "Coupon expired", invErr.Message)
				assert.Equal(t, "BAD", invErr.Code)
			},
		},
		{
			name:    "FallbackMessage",
			checker: &mockChecker{verdict: Verdict{Valid: false}},
			wantMsg: MsgInvalid,
			wantErr: func(t *testing.T, err error) {
				var invErr *InvalidError
				require.True(t, errors.As(err, &invErr))
			},
		},
		{
			name:    "ValidWithoutPercent",
			checker: &mockChecker{verdict: Verdict{Valid: true}},
			wantMsg: MsgMissingDiscount,
			wantErr: func(t *testing.T, err error) {
				var invErr *InvalidError
				require.True(t, errors.As(err, &invErr))
			},
		},
		{
			name:    "TransportFailure",
			checker: &mockChecker{err: errors.New("connection refused")},
			wantMsg: MsgCheckFailed,
			wantErr: func(t *testing.T, err error) {
				var invErr *InvalidError
				assert.False(t, errors.As(err, &invErr))
				assert.ErrorContains(t, err, "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			err := tr.Apply(context.Background(), tt.checker, auth.Anonymous(), "BAD", decimal.NewFromInt(100))
			require.Error(t, err)
			tt.wantErr(t, err)

			assert.Equal(t, Invalid{Message: tt.wantMsg}, tr.Status())
			assert.True(t, tr.DiscountedPrice(decimal.NewFromInt(100)).IsZero())
		})
	}
}

func TestTracker_Transitions(t *testing.T) {
	valid := &mockChecker{verdict: Verdict{Valid: true, Percent: percent(10)}}
	invalid := &mockChecker{verdict: Verdict{Valid: false, Message: "nope"}}
	ctx := context.Background()
	sub := decimal.NewFromInt(50)

	tr := NewTracker()
	assert.Equal(t, "unapplied", tr.Status().Kind())

	require.Error(t, tr.Apply(ctx, invalid, auth.Anonymous(), "X", sub))
	assert.Equal(t, "invalid", tr.Status().Kind())

	require.NoError(t, tr.Apply(ctx, valid, auth.Anonymous(), "Y", sub))
	assert.Equal(t, "valid", tr.Status().Kind())

	require.Error(t, tr.Apply(ctx, invalid, auth.Anonymous(), "Y", sub))
	assert.Equal(t, "invalid", tr.Status().Kind())

	require.NoError(t, tr.Apply(ctx, valid, auth.Anonymous(), "Y", sub))
	tr.SetCode("Y2")
	assert.Equal(t, "valid", tr.Status().Kind(), "editing the code keeps the last verdict")

	tr.SetCode(" ")
	assert.Equal(t, Unapplied{}, tr.Status())

	require.NoError(t, tr.Apply(ctx, valid, auth.Anonymous(), "Y", sub))
	tr.Clear()
	assert.Equal(t, Unapplied{}, tr.Status())
	assert.Empty(t, tr.Code())
}

func TestTracker_ZeroValue(t *testing.T) {
	var tr Tracker

	assert.Equal(t, Unapplied{}, tr.Status())
	assert.True(t, tr.DiscountedPrice(decimal.NewFromInt(10)).IsZero())
}

func TestDiscount(t *testing.T) {
	tests := []struct {
		subtotal string
		percent  string
		want     string
	}{
		{subtotal: "100", percent: "15", want: "85.00"},
		{subtotal: "200", percent: "15", want: "170.00"},
		{subtotal: "10.01", percent: "50", want: "5.01"},
		{subtotal: "0.05", percent: "10", want: "0.05"},
		{subtotal: "99.99", percent: "100", want: "0.00"},
		{subtotal: "33.33", percent: "12.5", want: "29.16"},
		{subtotal: "0", percent: "20", want: "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.subtotal+"@"+tt.percent, func(t *testing.T) {
			got := Discount(decimal.RequireFromString(tt.subtotal), decimal.RequireFromString(tt.percent))
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
