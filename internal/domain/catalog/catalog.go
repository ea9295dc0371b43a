package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

// Service represents a laundry service offered by the backend.
type Service struct {
	ID        string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
}

// Provider lists the services currently offered by the backend.
type Provider interface {
	ListServices(ctx context.Context, sess auth.Session) ([]Service, error)
}

// Refresher is a Provider that can bypass any caching it does.
type Refresher interface {
	Provider
	RefreshServices(ctx context.Context, sess auth.Session) ([]Service, error)
}

// Refresh fetches a fresh service list from p, skipping its cache when p
// supports that.
func Refresh(ctx context.Context, p Provider, sess auth.Session) ([]Service, error) {
	if r, ok := p.(Refresher); ok {
		return r.RefreshServices(ctx, sess)
	}
	return p.ListServices(ctx, sess)
}

// Catalog is an immutable, id-indexed snapshot of the service list.
// The zero value is an empty catalog.
type Catalog struct {
	services []Service
	byID     map[string]int
}

// New builds a Catalog from services. The backend list is assumed to be
// deduplicated by id; if it is not, the first occurrence wins.
func New(services []Service) Catalog {
	c := Catalog{
		services: make([]Service, 0, len(services)),
		byID:     make(map[string]int, len(services)),
	}
	for _, s := range services {
		if _, dup := c.byID[s.ID]; dup {
			continue
		}
		c.byID[s.ID] = len(c.services)
		c.services = append(c.services, s)
	}
	return c
}

// Lookup resolves a service by exact id.
func (c Catalog) Lookup(id string) (Service, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Services returns the services in backend order.
func (c Catalog) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

// Len returns the number of services.
func (c Catalog) Len() int {
	return len(c.services)
}
