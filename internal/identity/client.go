package identity

import (
	"context"
	"sync"
)

// Client is the stateful face of the identity provider: it tracks the
// current session and fans session changes out to subscribers. It
// implements Provider. The session manager is its main consumer.
type Client struct {
	accounts *Accounts

	mu      sync.Mutex
	current *Session
	subs    map[int]ChangeFunc
	nextSub int
}

func NewClient(accounts *Accounts) *Client {
	return &Client{accounts: accounts, subs: make(map[int]ChangeFunc)}
}

// SignInWithPassword authenticates and, on success, replaces the current
// session and notifies subscribers with a SIGNED_IN event.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.accounts.PasswordSignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.setSession(s, EventSignedIn)
	return s, nil
}

// SignUp registers a new account. Like the hosted provider with email
// confirmation disabled, a successful sign-up is also a sign-in.
func (c *Client) SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, error) {
	s, err := c.accounts.SignUp(ctx, email, password, meta)
	if err != nil {
		return nil, err
	}
	c.setSession(s, EventSignedIn)
	return s, nil
}

// SignOut revokes the current session's refresh token, clears the
// session and notifies subscribers with a nil session. Signing out with
// no session is a successful no-op.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return nil
	}
	if err := c.accounts.SignOutToken(ctx, cur.Refresh.Raw); err != nil {
		return err
	}
	c.setSession(nil, EventSignedOut)
	return nil
}

// GetSession returns the current session, refreshing the access token
// when it has expired. An expired refresh token clears the session and
// notifies subscribers, mirroring provider-side expiry.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()
	if cur == nil {
		return nil, nil
	}
	if !cur.Expired() {
		return cur, nil
	}
	s, err := c.accounts.RestoreSession(ctx, cur.Refresh.Raw)
	if err != nil {
		c.setSession(nil, EventSignedOut)
		return nil, nil
	}
	c.setSession(s, EventTokenRefreshed)
	return s, nil
}

// Restore seeds the client from a persisted refresh token, the
// equivalent of the hosted client rehydrating from local storage at
// startup. Subscribers observe the resulting sign-in.
func (c *Client) Restore(ctx context.Context, refreshRaw string) error {
	s, err := c.accounts.RestoreSession(ctx, refreshRaw)
	if err != nil {
		return err
	}
	c.setSession(s, EventSignedIn)
	return nil
}

// OnAuthStateChange registers cb and returns its unsubscribe func.
// Callbacks run synchronously on the goroutine that changed the session,
// after the new session is visible through GetSession. Subscribers must
// hand further provider calls off to their own queue instead of issuing
// them from inside the callback.
func (c *Client) OnAuthStateChange(cb ChangeFunc) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = cb
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) setSession(s *Session, ev AuthEvent) {
	c.mu.Lock()
	c.current = s
	cbs := make([]ChangeFunc, 0, len(c.subs))
	for _, cb := range c.subs {
		cbs = append(cbs, cb)
	}
	c.mu.Unlock()
	for _, cb := range cbs {
		cb(ev, s)
	}
}
