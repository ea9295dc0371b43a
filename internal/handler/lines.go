package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/cleanwave-checkout/internal/session"
)

// AddLine appends an empty line to the cart.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	h.do(w, r, func(s *session.Session) error {
		s.Form.Cart.AddLine()
		return nil
	})
}

// UpdateLine sets the service and/or quantity of a line. Values are stored
// as entered; invalid ones only stop the line from contributing.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var serviceID, quantity *string
	if err := decodeObject(body, func(d *jx.Decoder, key string) error {
		switch key {
		case "serviceId":
			v, err := decodeScalar(d, "serviceId")
			serviceID = &v
			return err
		case "quantity":
			v, err := decodeScalar(d, "quantity")
			quantity = &v
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		h.writeError(w, r, err)
		return
	}
	if serviceID == nil && quantity == nil {
		h.writeError(w, r, &badRequestError{msg: "Nothing to update: set serviceId or quantity."})
		return
	}

	h.do(w, r, func(s *session.Session) error {
		if serviceID != nil {
			if err := s.Form.Cart.UpdateServiceID(idx, *serviceID); err != nil {
				return err
			}
		}
		if quantity != nil {
			if err := s.Form.Cart.UpdateQuantity(idx, *quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// RemoveLine deletes a line. The last line cannot be removed.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	idx, err := lineIndex(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.do(w, r, func(s *session.Session) error {
		return s.Form.Cart.RemoveLine(idx)
	})
}

func lineIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, &badRequestError{msg: "Line index must be a number.", err: err}
	}
	return idx, nil
}

// decodeScalar reads a form value sent either as a string or a number.
func decodeScalar(d *jx.Decoder, field string) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case jx.Null:
		return "", d.Null()
	default:
		return "", &badRequestError{msg: "Field " + field + " must be a string or a number."}
	}
}
