package client

import (
	"context"
)

// contextKey for values stored by this package
type contextKey string

const (
	// ctxKeyClient holds the process-wide client handle
	ctxKeyClient contextKey = "notefeed_client"
)

// WithClient returns a context carrying c. Components started from that
// context share the one handle instead of building their own.
func WithClient(ctx context.Context, c *Client) context.Context {
	return context.WithValue(ctx, ctxKeyClient, c)
}

// FromContext returns the client stored by WithClient
func FromContext(ctx context.Context) (*Client, error) {
	if v := ctx.Value(ctxKeyClient); v != nil {
		if c, ok := v.(*Client); ok && c != nil {
			return c, nil
		}
	}
	return nil, ErrNoClient
}
