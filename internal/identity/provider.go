// Package identity implements the marketplace's identity provider: account
// creation, password sign-in, token issuance and session restore, plus an
// in-process change-notification channel that session consumers subscribe
// to. The stateless Accounts service backs the HTTP auth endpoints; the
// stateful Client exposes the provider surface a session manager consumes.
package identity

import (
	"context"
	"time"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/utils"
)

// AuthEvent labels a session change delivered to subscribers.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// Session is the credential bundle issued on successful authentication.
// Beyond the embedded user id/email it is opaque to consumers: they track
// presence/absence and replace it wholesale on every change event.
type Session struct {
	UserID       uint64
	Email        string
	UserMetadata Metadata
	Access       utils.AccessToken
	Refresh      utils.RefreshToken
}

// Metadata carries the attributes attached at sign-up. The profile
// trigger consumes them; session consumers fall back to Name when the
// profile row is missing.
type Metadata struct {
	Name  string
	Role  model.Role
	Phone *string
}

// ChangeFunc receives session change events. session is nil on sign-out
// and expiry.
type ChangeFunc func(event AuthEvent, session *Session)

// Provider is the authentication surface session consumers program
// against. Client is the production implementation; tests substitute
// scripted stubs.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers cb for future session changes and
	// returns an unsubscribe func. Callbacks run on the goroutine that
	// triggered the change; they must not call back into the provider
	// from the same stack frame.
	OnAuthStateChange(cb ChangeFunc) (unsubscribe func())
}

// ProviderError is the single failure taxonomy of the provider: every
// rejection carries a user-presentable message and nothing else. There is
// no transient/permanent distinction and no retry.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

var (
	// ErrInvalidCredentials is returned for a wrong email or password.
	ErrInvalidCredentials = &ProviderError{Message: "Invalid login credentials"}
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = &ProviderError{Message: "User already registered"}
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = &ProviderError{Message: "Password should be at least 8 characters"}
	// ErrSessionMissing is returned when an operation needs a session
	// and none is present.
	ErrSessionMissing = &ProviderError{Message: "Auth session missing"}
	// ErrUserBanned is returned when the account has been blocked or
	// deactivated by an admin.
	ErrUserBanned = &ProviderError{Message: "User is banned"}
)

// Expired reports whether the session's access token is past its expiry.
func (s *Session) Expired() bool {
	return s != nil && time.Now().UTC().After(s.Access.Exp)
}
