package backend

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/cleanwave-checkout/internal/domain/auth"
)

// Ping checks that the backend answers. Any status below 500 counts as up.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, "ping", http.MethodGet, c.paths.Services, auth.Anonymous(), nil, nil)
	if err != nil {
		return err
	}
	if resp.Status >= http.StatusInternalServerError {
		return &TransportError{Op: "ping", Status: resp.Status, Err: errors.New(http.StatusText(resp.Status))}
	}
	return nil
}
