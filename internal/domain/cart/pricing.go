package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
)

// PricedLine is a line resolved against a catalog.
type PricedLine struct {
	Index int
	Line  Line
	// Service is the resolved service, zero when the id is unknown.
	Service catalog.Service
	// Quantity is the parsed quantity, zero when the raw value is not a
	// positive number.
	Quantity  decimal.Decimal
	LineTotal decimal.Decimal
	// Contributes reports whether the line counts towards the subtotal.
	Contributes bool
}

// Price resolves every line of c against cat. Lines with an unknown service
// or a quantity that is not a positive number are kept with a zero total.
func Price(c *Cart, cat catalog.Catalog) []PricedLine {
	out := make([]PricedLine, 0, c.Len())
	for i, l := range c.lines {
		p := PricedLine{Index: i, Line: l}
		svc, found := cat.Lookup(l.ServiceID)
		qty, ok := ParseQuantity(l.Quantity)
		if found {
			p.Service = svc
		}
		if ok {
			p.Quantity = qty
		}
		if found && ok {
			p.LineTotal = svc.UnitPrice.Mul(qty)
			p.Contributes = true
		}
		out = append(out, p)
	}
	return out
}

// Subtotal sums the totals of contributing lines. No rounding is applied.
func Subtotal(c *Cart, cat catalog.Catalog) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range Price(c, cat) {
		if p.Contributes {
			sum = sum.Add(p.LineTotal)
		}
	}
	return sum
}

// HasContributingLine reports whether at least one line counts towards the subtotal.
func HasContributingLine(c *Cart, cat catalog.Catalog) bool {
	for _, p := range Price(c, cat) {
		if p.Contributes {
			return true
		}
	}
	return false
}

// ParseQuantity parses a raw quantity. It reports false for anything that
// is not a finite number greater than zero.
func ParseQuantity(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	q, err := decimal.NewFromString(s)
	if err != nil || !q.IsPositive() {
		return decimal.Zero, false
	}
	return q, true
}
