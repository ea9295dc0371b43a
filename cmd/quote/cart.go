package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/errors"

	"github.com/xenking/cleanwave-checkout/internal/domain/cart"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
)

// fillCart adds one line per "serviceID[=quantity]" argument.
func fillCart(form *order.Form, args []string) error {
	if len(args) == 0 {
		return errors.New("no lines given: pass serviceID[=quantity] arguments")
	}
	for i, arg := range args {
		id, qty, ok := strings.Cut(arg, "=")
		if !ok {
			qty = cart.DefaultQuantity
		}
		if strings.TrimSpace(id) == "" {
			return errors.Errorf("line %q: empty service id", arg)
		}
		if i > 0 {
			form.Cart.AddLine()
		}
		if err := form.Cart.UpdateServiceID(i, id); err != nil {
			return err
		}
		if err := form.Cart.UpdateQuantity(i, qty); err != nil {
			return err
		}
	}
	return nil
}

func printQuote(w io.Writer, form *order.Form, cat catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tQTY\tUNIT\tTOTAL\t")
	for _, l := range cart.Price(form.Cart, cat) {
		if !l.Contributes {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t(skipped)\n", l.Line.ServiceID, l.Line.Quantity)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			l.Service.Name, l.Quantity.String(), l.Service.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2))
	}
	subtotal := form.Subtotal(cat)
	fmt.Fprintf(tw, "\t\tSubtotal\t%s\t\n", subtotal.StringFixed(2))

	switch s := form.Coupon.Status().(type) {
	case coupon.Valid:
		fmt.Fprintf(tw, "\t\tCoupon %s (-%s%%)\t\t\n", s.Code(), s.Percent().String())
		fmt.Fprintf(tw, "\t\tTotal\t%s\t\n", form.Coupon.DiscountedPrice(subtotal).StringFixed(2))
	case coupon.Invalid:
		fmt.Fprintf(tw, "\t\tCoupon\t%s\t\n", s.Message)
		fmt.Fprintf(tw, "\t\tTotal\t%s\t\n", subtotal.StringFixed(2))
	default:
		fmt.Fprintf(tw, "\t\tTotal\t%s\t\n", subtotal.StringFixed(2))
	}
	return tw.Flush()
}
