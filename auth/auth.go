// Package auth fetches and caches OAuth2 client-credential tokens for the
// outbound publishers.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type ClientCred struct {
	conf  clientcredentials.Config
	mu    sync.Mutex
	token *oauth2.Token
}

func NewClientCred(conf Conf) *ClientCred {
	return &ClientCred{conf: conf.toOauth2Config()}
}

// Token returns the cached token while it is valid and requests a new one
// otherwise.
func (c *ClientCred) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token, nil
	}
	tok, err := c.conf.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	c.token = tok
	return tok, nil
}

// Invalidate drops the cached token so the next call fetches a fresh one.
// Publishers call it after a 401.
func (c *ClientCred) Invalidate() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// SetAuthHeader sets the Authorization header of r.
func (c *ClientCred) SetAuthHeader(ctx context.Context, r *http.Request) error {
	tok, err := c.Token(ctx)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(r)
	return nil
}
