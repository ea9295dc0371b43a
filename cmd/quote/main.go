// Command quote prices an order against the live service catalog and
// optionally places it.
//
//	quote -backend https://api.example.com -token T -coupon SPRING15 shirt-wash=3 duvet=1
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/backend"
	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
)

func main() {
	var (
		backendURL string
		token      string
		code       string
		submit     bool
		timeout    time.Duration
		contact    order.GuestContact
	)

	flag.StringVar(&backendURL, "backend", "", "backend API base URL (or BACKEND_URL env)")
	flag.StringVar(&token, "token", "", "bearer token; empty places a guest order (or CHECKOUT_TOKEN env)")
	flag.StringVar(&code, "coupon", "", "coupon code to apply")
	flag.BoolVar(&submit, "submit", false, "place the order after quoting")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "backend call timeout")
	flag.StringVar(&contact.FirstName, "first-name", "", "guest first name")
	flag.StringVar(&contact.LastName, "last-name", "", "guest last name")
	flag.StringVar(&contact.Email, "email", "", "guest email")
	flag.StringVar(&contact.Phone, "phone", "", "guest phone")
	flag.StringVar(&contact.Address, "address", "", "guest pickup address")
	flag.StringVar(&contact.PickupDate, "pickup-date", "", "guest pickup date (YYYY-MM-DD)")
	flag.StringVar(&contact.PickupTime, "pickup-time", "", "guest pickup slot (e.g. 10:00)")
	flag.StringVar(&contact.Notes, "notes", "", "guest notes")
	flag.Parse()

	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if backendURL == "" {
		backendURL = os.Getenv("BACKEND_URL")
	}
	if token == "" {
		token = os.Getenv("CHECKOUT_TOKEN")
	}
	if backendURL == "" {
		lg.Fatal("Backend URL is required: set -backend or BACKEND_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := backend.New(backend.Options{BaseURL: backendURL, Timeout: timeout})
	if err != nil {
		lg.Fatal("Create backend client", zap.Error(err))
	}

	q := quote{
		sess:    auth.Session{Token: token},
		code:    code,
		contact: contact,
	}
	if err := q.run(ctx, client, flag.Args(), submit); err != nil {
		lg.Fatal("Quote failed", zap.Error(err))
	}
}

type backendClient interface {
	catalog.Provider
	coupon.Checker
	order.Submitter
}

type quote struct {
	sess    auth.Session
	code    string
	contact order.GuestContact
	out     io.Writer
}

func (q quote) run(ctx context.Context, c backendClient, args []string, submit bool) error {
	services, err := c.ListServices(ctx, q.sess)
	if err != nil {
		return errors.Wrap(err, "list services")
	}
	cat := catalog.New(services)

	form := order.NewForm(!q.sess.Authenticated())
	if err := fillCart(form, args); err != nil {
		return err
	}
	form.Contact = q.contact

	if q.code != "" {
		var invalid *coupon.InvalidError
		if err := form.Coupon.Apply(ctx, c, q.sess, q.code, form.Subtotal(cat)); err != nil && !errors.As(err, &invalid) {
			return errors.Wrap(err, "apply coupon")
		}
	}

	out := q.out
	if out == nil {
		out = os.Stdout
	}
	if err := printQuote(out, form, cat); err != nil {
		return err
	}
	if !submit {
		return nil
	}

	receipt, err := form.Submit(ctx, c, q.sess, cat)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\nOrder %s placed. %s\n", receipt.OrderID, receipt.Message)
	return err
}
