// Package handler implements the HTTP API of the checkout service.
package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/coupon"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

const maxRequestBody = 64 << 10

// Recorder receives business events for metrics.
type Recorder interface {
	CouponChecked(ctx context.Context, result string)
	OrderSubmitted(ctx context.Context, result string)
}

type nopRecorder struct{}

func (nopRecorder) CouponChecked(context.Context, string)  {}
func (nopRecorder) OrderSubmitted(context.Context, string) {}

// Handler serves the order form API.
type Handler struct {
	sessions *session.Store
	catalog  catalog.Provider
	coupons  coupon.Checker
	orders   order.Submitter
	metrics  Recorder
}

// Option configures a Handler.
type Option func(*Handler)

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Handler) {
		if r != nil {
			h.metrics = r
		}
	}
}

// New creates a Handler.
func New(
	sessions *session.Store,
	provider catalog.Provider,
	coupons coupon.Checker,
	orders order.Submitter,
	opts ...Option,
) *Handler {
	h := &Handler{
		sessions: sessions,
		catalog:  provider,
		coupons:  coupons,
		orders:   orders,
		metrics:  nopRecorder{},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/services", h.ListServices)
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/catalog/refresh", h.RefreshCatalog)
	mux.HandleFunc("POST /api/sessions/{id}/lines", h.AddLine)
	mux.HandleFunc("PATCH /api/sessions/{id}/lines/{index}", h.UpdateLine)
	mux.HandleFunc("DELETE /api/sessions/{id}/lines/{index}", h.RemoveLine)
	mux.HandleFunc("PUT /api/sessions/{id}/coupon", h.ApplyCoupon)
	mux.HandleFunc("DELETE /api/sessions/{id}/coupon", h.ClearCoupon)
	mux.HandleFunc("PUT /api/sessions/{id}/contact", h.SetContact)
	mux.HandleFunc("POST /api/sessions/{id}/submit", h.Submit)
}

func caller(r *http.Request) auth.Session {
	return auth.FromAuthorization(r.Header.Get("Authorization"))
}

// readBody returns the request body. An empty body decodes as an empty object.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, &badRequestError{msg: "Request body is too large or unreadable."}
	}
	if len(data) == 0 {
		return []byte("{}"), nil
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := userMessage(err)
	lg := zctx.From(r.Context())
	if status >= http.StatusInternalServerError {
		lg.Error("Request failed", zap.Int("status", status), zap.Error(err))
	} else {
		lg.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, status, &e)
}

// do runs fn on the session named in the path and responds with the
// resulting session view.
func (h *Handler) do(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	var view jx.Encoder
	err := h.sessions.Do(r.Context(), r.PathValue("id"), caller(r), func(s *session.Session) error {
		if err := fn(s); err != nil {
			return err
		}
		encodeSession(&view, s)
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &view)
}

func decodeObject(data []byte, f func(d *jx.Decoder, key string) error) error {
	if err := jx.DecodeBytes(data).Obj(f); err != nil {
		var bad *badRequestError
		if errors.As(err, &bad) {
			return bad
		}
		return &badRequestError{msg: "Request body must be a JSON object.", err: err}
	}
	return nil
}
