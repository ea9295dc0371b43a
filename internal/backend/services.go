package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
	"github.com/xenking/cleanwave-checkout/internal/domain/catalog"
)

const opListServices = "list services"

var _ catalog.Refresher = (*Client)(nil)

// ListServices returns the service catalog visible to sess. Concurrent
// calls for the same credentials share one request.
func (c *Client) ListServices(ctx context.Context, sess auth.Session) ([]catalog.Service, error) {
	if s, ok := c.cachedServices(sess.Token); ok {
		return s, nil
	}
	return c.loadServices(ctx, sess, "list:"+sess.Token)
}

// RefreshServices fetches the catalog from the backend regardless of the
// cache and replaces the cached copy.
func (c *Client) RefreshServices(ctx context.Context, sess auth.Session) ([]catalog.Service, error) {
	return c.loadServices(ctx, sess, "refresh:"+sess.Token)
}

// loadServices fetches the catalog once per flight key. The shared fetch
// outlives any single caller; a caller whose ctx ends stops waiting.
func (c *Client) loadServices(ctx context.Context, sess auth.Session, flight string) ([]catalog.Service, error) {
	ch := c.group.DoChan(flight, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.http.Timeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.http.Timeout)
			defer cancel()
		}
		s, err := c.fetchServices(fetchCtx, sess)
		if err != nil {
			return nil, err
		}
		c.storeServices(sess.Token, s)
		return s, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), opListServices)
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		zctx.From(ctx).Debug("Shared catalog fetch")
	}
	services := res.Val.([]catalog.Service)
	out := make([]catalog.Service, len(services))
	copy(out, services)
	return out, nil
}

func (c *Client) cachedServices(key string) ([]catalog.Service, bool) {
	if c.catalogTTL <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.cached[key]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	out := make([]catalog.Service, len(e.services))
	copy(out, e.services)
	return out, true
}

func (c *Client) storeServices(key string, s []catalog.Service) {
	if c.catalogTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached[key] = cachedCatalog{services: s, expires: c.now().Add(c.catalogTTL)}
}

func (c *Client) fetchServices(ctx context.Context, sess auth.Session) ([]catalog.Service, error) {
	resp, err := c.do(ctx, opListServices, http.MethodGet, c.paths.Services, sess, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.success() {
		env, _ := decodeEnvelope(resp.Body)
		if env.Message != "" {
			return nil, &RejectionError{Op: opListServices, Status: resp.Status, Message: env.Message}
		}
		return nil, &TransportError{Op: opListServices, Status: resp.Status, Err: errors.New(http.StatusText(resp.Status))}
	}

	services, err := decodeServices(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: opListServices, Status: resp.Status, Err: err}
	}
	zctx.From(ctx).Debug("Fetched catalog", zap.Int("services", len(services)))
	return services, nil
}

func decodeServices(body []byte) ([]catalog.Service, error) {
	list, err := listBody(body)
	if err != nil {
		return nil, err
	}
	var out []catalog.Service
	if err := jx.DecodeBytes(list).Arr(func(d *jx.Decoder) error {
		s, err := decodeService(d)
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "decode services")
	}
	return out, nil
}

func decodeService(d *jx.Decoder) (catalog.Service, error) {
	var (
		s        catalog.Service
		hasPrice bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id", "_id":
			s.ID, err = decodeID(d)
		case "name", "title":
			s.Name, err = decodeOptionalStr(d)
		case "category", "type":
			s.Category, err = decodeOptionalStr(d)
		case "price", "unit_price", "unitPrice":
			s.UnitPrice, err = decodeDecimal(d)
			hasPrice = err == nil
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return s, err
	}
	if s.ID == "" {
		return s, errors.New("service without id")
	}
	if !hasPrice {
		return s, errors.Errorf("service %s without price", s.ID)
	}
	return s, nil
}

func decodeOptionalStr(d *jx.Decoder) (string, error) {
	if d.Next() != jx.String {
		return "", d.Skip()
	}
	return d.Str()
}
