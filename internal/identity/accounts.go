package identity

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
	"github.com/yuvrajxx14mu/marketing-yard/internal/utils"
)

// UserStore is the slice of the user repository the provider needs.
type UserStore interface {
	Create(ctx context.Context, email, password string, role model.Role, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// ProfileStore is the slice of the profile repository the provider needs.
type ProfileStore interface {
	Create(ctx context.Context, p model.Profile) error
	GetByID(ctx context.Context, id uint64) (model.Profile, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, time.Time, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Config carries the token and hashing parameters.
type Config struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Accounts is the stateless core of the identity provider. The HTTP auth
// handlers and the stateful Client both delegate to it so sign-in and
// sign-up behave identically on every surface.
type Accounts struct {
	users    UserStore
	profiles ProfileStore
	tokens   TokenStore
	cfg      Config
}

func NewAccounts(users UserStore, profiles ProfileStore, tokens TokenStore, cfg Config) *Accounts {
	return &Accounts{users: users, profiles: profiles, tokens: tokens, cfg: cfg}
}

// SignUp creates the authentication identity and runs the profile trigger:
// the signup metadata (name, role, phone) becomes the profiles row. The
// trigger is best-effort; a failed profile insert does not fail sign-up,
// it only means session hydration later degrades to a default profile.
func (a *Accounts) SignUp(ctx context.Context, email, password string, meta Metadata) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, &ProviderError{Message: "Email and password are required"}
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	// Self-registration only hands out marketplace roles. Admin accounts
	// are provisioned out of band; anything unknown falls back to farmer.
	role := meta.Role
	if role != model.RoleFarmer && role != model.RoleTrader {
		role = model.RoleFarmer
	}
	meta.Role = role

	uid, err := a.users.Create(ctx, email, password, role, a.cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrUserExists
		}
		return nil, &ProviderError{Message: err.Error()}
	}

	if err := a.profiles.Create(ctx, model.Profile{
		ID:    uid,
		Name:  meta.Name,
		Phone: meta.Phone,
		Role:  role,
	}); err != nil {
		log.Printf("identity: profile trigger failed for user %d: %v", uid, err)
	}

	return a.issueSession(ctx, uid, email, meta)
}

// PasswordSignIn verifies the credentials and issues a fresh session.
// Unknown email and wrong password are indistinguishable to the caller.
func (a *Accounts) PasswordSignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, &ProviderError{Message: err.Error()}
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	// Checked after the password so a suspended account is only revealed
	// to someone holding its credentials.
	if u.Status.Suspended() {
		return nil, ErrUserBanned
	}

	meta := Metadata{Role: u.Role}
	if p, err := a.profiles.GetByID(ctx, u.ID); err == nil {
		meta.Name = p.Name
		meta.Phone = p.Phone
	}
	return a.issueSession(ctx, u.ID, u.Email, meta)
}

// SignOutToken revokes the refresh token backing a session.
func (a *Accounts) SignOutToken(ctx context.Context, refreshRaw string) error {
	if strings.TrimSpace(refreshRaw) == "" {
		return ErrSessionMissing
	}
	if err := a.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(refreshRaw)); err != nil {
		return &ProviderError{Message: err.Error()}
	}
	return nil
}

// SignOutAll revokes every refresh token the user holds, ending all
// sessions across devices.
func (a *Accounts) SignOutAll(ctx context.Context, userID uint64) error {
	if err := a.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return &ProviderError{Message: err.Error()}
	}
	return nil
}

// RestoreSession exchanges a previously issued refresh token for a session
// with a fresh access token. The refresh token is kept as-is.
func (a *Accounts) RestoreSession(ctx context.Context, refreshRaw string) (*Session, error) {
	uid, refreshExp, err := a.tokens.ValidateRefresh(ctx, utils.HashRefreshRaw(refreshRaw))
	if err != nil {
		return nil, ErrSessionMissing
	}
	u, err := a.users.GetByID(ctx, uid)
	if err != nil {
		return nil, ErrSessionMissing
	}
	if u.Status.Suspended() {
		return nil, ErrUserBanned
	}
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, u.ID, u.Email, string(u.Role), a.cfg.AccessTTLMin)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	meta := Metadata{Role: u.Role}
	if p, err := a.profiles.GetByID(ctx, u.ID); err == nil {
		meta.Name = p.Name
		meta.Phone = p.Phone
	}
	return &Session{
		UserID:       u.ID,
		Email:        u.Email,
		UserMetadata: meta,
		Access:       access,
		Refresh:      utils.RefreshToken{Raw: refreshRaw, Exp: refreshExp},
	}, nil
}

// RotateRefresh revokes the presented refresh token and issues a whole
// new session (access + refresh pair).
func (a *Accounts) RotateRefresh(ctx context.Context, refreshRaw string) (*Session, error) {
	hash := utils.HashRefreshRaw(refreshRaw)
	uid, _, err := a.tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return nil, ErrSessionMissing
	}
	u, err := a.users.GetByID(ctx, uid)
	if err != nil {
		return nil, ErrSessionMissing
	}
	// Rejected before the revoke so a reinstated account keeps its
	// sessions.
	if u.Status.Suspended() {
		return nil, ErrUserBanned
	}
	if err := a.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	meta := Metadata{Role: u.Role}
	if p, err := a.profiles.GetByID(ctx, u.ID); err == nil {
		meta.Name = p.Name
		meta.Phone = p.Phone
	}
	return a.issueSession(ctx, u.ID, u.Email, meta)
}

func (a *Accounts) issueSession(ctx context.Context, uid uint64, email string, meta Metadata) (*Session, error) {
	access, err := utils.NewAccessToken(a.cfg.JWTSecret, uid, email, string(meta.Role), a.cfg.AccessTTLMin)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	refresh, err := utils.NewRefreshToken(a.cfg.RefreshTTLDays)
	if err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	if err := a.tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, &ProviderError{Message: err.Error()}
	}
	return &Session{
		UserID:       uid,
		Email:        email,
		UserMetadata: meta,
		Access:       access,
		Refresh:      refresh,
	}, nil
}
