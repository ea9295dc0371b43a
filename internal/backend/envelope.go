package backend

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// envelope is the common response wrapper of the backend:
//
//	{"success": true, "data": ..., "message": "..."}
//
// Every field is optional. Bodies that are not objects are kept in Data.
type envelope struct {
	Success *bool
	Message string
	Data    jx.Raw
}

func (e envelope) ok() bool {
	return e.Success == nil || *e.Success
}

func decodeEnvelope(body []byte) (envelope, error) {
	var env envelope
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		raw, err := d.Raw()
		if err != nil {
			return env, errors.Wrap(err, "read body")
		}
		env.Data = raw
		return env, nil
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "success":
			if d.Next() != jx.Bool {
				return d.Skip()
			}
			v, err := d.Bool()
			if err != nil {
				return err
			}
			env.Success = &v
			return nil
		case "message", "error":
			if d.Next() != jx.String {
				return d.Skip()
			}
			v, err := d.Str()
			if err != nil {
				return err
			}
			if env.Message == "" {
				env.Message = v
			}
			return nil
		case "data":
			raw, err := d.Raw()
			if err != nil {
				return err
			}
			env.Data = raw
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return env, errors.Wrap(err, "decode envelope")
	}
	return env, nil
}

// listBody returns the array held by body, accepting either a bare array or
// an envelope whose data is an array.
func listBody(body []byte) (jx.Raw, error) {
	d := jx.DecodeBytes(body)
	if d.Next() == jx.Array {
		return jx.Raw(body), nil
	}
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || env.Data.Type() != jx.Array {
		return nil, errors.New("no list in response")
	}
	return env.Data, nil
}

// decodeDecimal reads a number that may be encoded as a JSON number or a
// numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	default:
		return decimal.Zero, errors.Errorf("unexpected %s for number", d.Next())
	}
}

// decodeID reads an identifier that may be a string or a number.
func decodeID(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", errors.Errorf("unexpected %s for id", d.Next())
	}
}

// decodeBool reads a flag that may be a boolean, a "true"/"false" string or
// a 0/1 number.
func decodeBool(d *jx.Decoder) (bool, error) {
	switch d.Next() {
	case jx.Bool:
		return d.Bool()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return false, err
		}
		return strings.EqualFold(strings.TrimSpace(s), "true"), nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return false, err
		}
		return n.String() != "0", nil
	case jx.Null:
		return false, d.Null()
	default:
		return false, errors.Errorf("unexpected %s for bool", d.Next())
	}
}
