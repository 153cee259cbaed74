package auth

import (
	"context"
	"errors"
	"sync"

	"oli-admin/internal/model"
)

// Listener is notified with the current operator, or nil when signed out.
type Listener func(ctx context.Context, op *model.Operator)

// Client is one console's view of the identity provider. It holds the session
// token and notifies listeners whenever the signed-in state flips.
type Client struct {
	svc *Service

	mu        sync.Mutex
	token     string
	user      *model.Operator
	listeners map[int]Listener
	nextID    int
}

func (s *Service) NewClient() *Client {
	return &Client{svc: s, listeners: make(map[int]Listener)}
}

// SignIn opens a session. On failure the current state is left untouched.
func (c *Client) SignIn(ctx context.Context, email, password string) error {
	op, token, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	c.setState(ctx, token, op)
	return nil
}

// SignOut revokes the session and notifies listeners.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.svc.Revoke(ctx, token); err != nil {
			return err
		}
	}
	c.setState(ctx, "", nil)
	return nil
}

// Restore adopts a token issued earlier, e.g. one read back from a cookie.
func (c *Client) Restore(ctx context.Context, token string) error {
	op, err := c.svc.Validate(ctx, token)
	if err != nil {
		return err
	}
	c.setState(ctx, token, op)
	return nil
}

// Refresh revalidates the held session. An expired or revoked session signs the client out.
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token == "" {
		return nil
	}
	_, err := c.svc.Validate(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		c.setState(ctx, "", nil)
		return nil
	}
	return err
}

// OnAuthStateChanged registers fn and calls it right away with the current state.
func (c *Client) OnAuthStateChanged(ctx context.Context, fn func(ctx context.Context, op *model.Operator)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	user := c.user
	c.mu.Unlock()

	fn(ctx, user)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) CurrentUser() *model.Operator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

func (c *Client) setState(ctx context.Context, token string, op *model.Operator) {
	c.mu.Lock()
	wasSignedIn := c.user != nil
	c.token = token
	c.user = op
	listeners := make([]Listener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	// Only transitions are reported.
	if wasSignedIn == (op != nil) {
		return
	}
	for _, l := range listeners {
		l(ctx, op)
	}
}
