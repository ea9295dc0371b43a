package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
	"github.com/xenking/cleanwave-checkout/internal/domain/order"
	"github.com/xenking/cleanwave-checkout/internal/session"
)

// ListServices returns the service catalog.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context(), caller(r))
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "list services"))
		return
	}
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, s := range services {
			encodeService(e, s)
		}
	})
	writeJSON(w, http.StatusOK, &e)
}

// CreateSession opens an order form. The body may set {"guest": true}.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var guest bool
	if err := decodeObject(body, func(d *jx.Decoder, key string) error {
		if key != "guest" {
			return d.Skip()
		}
		v, err := d.Bool()
		if err != nil {
			return &badRequestError{msg: "Field guest must be a boolean.", err: err}
		}
		guest = v
		return nil
	}); err != nil {
		h.writeError(w, r, err)
		return
	}

	who := caller(r)
	services, err := h.catalog.ListServices(r.Context(), who)
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "list services"))
		return
	}
	s, err := h.sessions.Create(who, order.NewForm(guest), catalog.New(services))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	zctx.From(r.Context()).Info("Session created",
		zap.String("session_id", s.ID),
		zap.Bool("guest", guest),
	)

	var view jx.Encoder
	if err := h.sessions.Do(r.Context(), s.ID, who, func(s *session.Session) error {
		encodeSession(&view, s)
		return nil
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSON(w, http.StatusCreated, &view)
}

// GetSession returns the current view of a session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, func(*session.Session) error { return nil })
}

// DeleteSession discards a session and everything entered in it.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("id"), caller(r)) {
		h.writeError(w, r, session.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshCatalog fetches the service list again. Lines whose service is
// gone stop contributing to the totals.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	who := caller(r)
	var view jx.Encoder
	err := h.sessions.Exclusive(r.Context(), r.PathValue("id"), who, func(s *session.Session) error {
		services, err := catalog.Refresh(r.Context(), h.catalog, who)
		if err != nil {
			return errors.Wrap(err, "refresh services")
		}
		s.Catalog = catalog.New(services)
		encodeSession(&view, s)
		return nil
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, &view)
}
