package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInstrument_SpanNamedByRoute(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	mux := http.NewServeMux()
	mux.Handle("GET /api/sessions/{id}", okHandler())
	mux.Handle("PATCH /api/sessions/{id}/lines/{index}", okHandler())
	mux.Handle("GET /livez", okHandler())

	h := Wrap(mux, Instrument("checkout", MakeRouteFinder(mux), tp, noop.NewMeterProvider(), "/livez"))

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/sessions/0b6c1f0e-1", nil),
		httptest.NewRequest(http.MethodGet, "/api/sessions/9f3a77d2-2", nil),
		httptest.NewRequest(http.MethodPatch, "/api/sessions/9f3a77d2-2/lines/3", nil),
		httptest.NewRequest(http.MethodGet, "/missing/42", nil),
		httptest.NewRequest(http.MethodGet, "/livez", nil),
	} {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	require.Len(t, names, 4)
	assert.Equal(t, []string{
		"GET /api/sessions/{id}",
		"GET /api/sessions/{id}",
		"PATCH /api/sessions/{id}/lines/{index}",
		"GET",
	}, names)
}
