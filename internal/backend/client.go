// Package backend implements the HTTP client of the laundry backend API.
package backend

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
)

// maxBodySize caps how much of a backend response is read.
const maxBodySize = 4 << 20

// Paths holds the endpoint paths relative to the base URL.
type Paths struct {
	Services       string
	ValidateCoupon string
	Orders         string
	GuestOrders    string
}

// DefaultPaths returns the paths of the public backend API.
func DefaultPaths() Paths {
	return Paths{
		Services:       "/services",
		ValidateCoupon: "/coupons/validate",
		Orders:         "/orders",
		GuestOrders:    "/guest/orders",
	}
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Paths   Paths
	// CatalogTTL is how long a fetched service list is reused. Zero disables
	// caching; concurrent fetches are still collapsed.
	CatalogTTL time.Duration

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper
}

// Client calls the backend API. It is safe for concurrent use.
type Client struct {
	base  *url.URL
	http  *http.Client
	paths Paths

	catalogTTL time.Duration
	group      singleflight.Group
	mu         sync.Mutex
	cached     map[string]cachedCatalog
	now        func() time.Time
}

type cachedCatalog struct {
	services []catalog.Service
	expires  time.Time
}

// New creates a Client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("backend URL is required")
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse backend URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("unsupported backend URL scheme %q", base.Scheme)
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = nooptrace.NewTracerProvider()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = noop.NewMeterProvider()
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	def := DefaultPaths()
	if opts.Paths.Services == "" {
		opts.Paths.Services = def.Services
	}
	if opts.Paths.ValidateCoupon == "" {
		opts.Paths.ValidateCoupon = def.ValidateCoupon
	}
	if opts.Paths.Orders == "" {
		opts.Paths.Orders = def.Orders
	}
	if opts.Paths.GuestOrders == "" {
		opts.Paths.GuestOrders = def.GuestOrders
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport,
				otelhttp.WithTracerProvider(opts.TracerProvider),
				otelhttp.WithMeterProvider(opts.MeterProvider),
			),
		},
		paths:      opts.Paths,
		catalogTTL: opts.CatalogTTL,
		cached:     map[string]cachedCatalog{},
		now:        time.Now,
	}, nil
}

type response struct {
	Status int
	Body   []byte
}

func (r response) success() bool {
	return r.Status >= 200 && r.Status < 300
}

func (c *Client) endpoint(path string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// do performs a request and reads the whole response. Only failures to
// obtain a response are returned as errors.
func (c *Client) do(ctx context.Context, op, method, path string, sess auth.Session, body []byte, header http.Header) (response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), rd)
	if err != nil {
		return response{}, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if h := sess.Authorization(); h != "" {
		req.Header.Set("Authorization", h)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	lg := zctx.From(ctx).With(zap.String("op", op), zap.String("method", method), zap.String("path", path))
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		lg.Warn("Backend request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return response{}, &TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return response{}, &TransportError{Op: op, Status: resp.StatusCode, Err: errors.Wrap(err, "read body")}
	}
	lg.Debug("Backend request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)
	return response{Status: resp.StatusCode, Body: data}, nil
}
