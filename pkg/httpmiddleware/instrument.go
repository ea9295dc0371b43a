package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// RouteFinder returns the route pattern a request will be served by, or ""
// when no route matches.
type RouteFinder func(r *http.Request) string

// MakeRouteFinder resolves routes through the patterns registered on mux.
func MakeRouteFinder(mux *http.ServeMux) RouteFinder {
	return func(r *http.Request) string {
		_, pattern := mux.Handler(r)
		return pattern
	}
}

// Instrument returns a middleware that traces and measures requests with
// otelhttp. Spans are named by route so that path parameters such as
// session ids do not end up in span names. Requests to the skip paths are
// not instrumented.
func Instrument(service string, find RouteFinder, tp trace.TracerProvider, mp metric.MeterProvider, skip ...string) Middleware {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, service,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
			otelhttp.WithFilter(func(r *http.Request) bool {
				_, ok := skipped[r.URL.Path]
				return !ok
			}),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return spanName(find, r)
			}),
		)
	}
}

func spanName(find RouteFinder, r *http.Request) string {
	if find != nil {
		if pattern := find(r); pattern != "" {
			return pattern
		}
	}
	return r.Method
}
