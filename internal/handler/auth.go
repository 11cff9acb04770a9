package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/identity"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// AuthHandler exposes the authentication endpoints. All credential logic
// lives in identity.Accounts; the handler only does transport concerns
// (binding, status codes, cookies).
type AuthHandler struct {
	Accounts *identity.Accounts
	Users    identity.UserStore
	Profiles identity.ProfileStore
}

func NewAuthHandler(a *identity.Accounts, users identity.UserStore, profiles identity.ProfileStore) *AuthHandler {
	return &AuthHandler{Accounts: a, Users: users, Profiles: profiles}
}

// ----- DTOs -----

type registerReq struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"` // farmer | trader
	Phone    *string `json:"phone"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(s *identity.Session) authResp {
	return authResp{
		User: userPart{
			ID:    s.UserID,
			Email: s.Email,
			Name:  s.UserMetadata.Name,
			Role:  string(s.UserMetadata.Role),
		},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// providerError maps the identity error taxonomy onto HTTP status codes.
// The message is always the provider's own, so the client sees the same
// text the session manager would surface in a notification.
func providerError(c echo.Context, err error) error {
	var pe *identity.ProviderError
	if !errors.As(err, &pe) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	code := http.StatusBadRequest
	switch pe {
	case identity.ErrInvalidCredentials, identity.ErrSessionMissing:
		code = http.StatusUnauthorized
	case identity.ErrUserExists:
		code = http.StatusConflict
	case identity.ErrUserBanned:
		code = http.StatusForbidden
	}
	return c.JSON(code, echo.Map{"error": pe.Message})
}

// Register creates the user, runs the profile trigger and returns a
// session immediately, so the client lands signed in.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Accounts.SignUp(ctx, req.Email, req.Password, identity.Metadata{
		Name:  strings.TrimSpace(req.Name),
		Role:  model.Role(strings.ToLower(strings.TrimSpace(req.Role))),
		Phone: req.Phone,
	})
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionResp(s))
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Accounts.PasswordSignIn(ctx, req.Email, req.Password)
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(s))
}

// Refresh rotates the refresh token: the presented token is revoked and a
// whole new pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Accounts.RotateRefresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResp(s))
}

// RefreshAccess issues a fresh access token against an existing refresh
// token without rotating it.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Accounts.RestoreSession(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return providerError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access": tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
	})
}

// Logout ends the session. With a refresh_token in the body only that
// session is revoked; without one every session of the calling user is.
// Runs behind the JWT middleware, so the caller is always identified.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req) // empty body is fine
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw != "" {
		if err := h.Accounts.SignOutToken(ctx, raw); err != nil {
			return providerError(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Accounts.SignOutAll(ctx, uid); err != nil {
		return providerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the calling user's account and profile. A missing profile
// row degrades to defaults instead of failing, matching how sessions are
// hydrated elsewhere.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	out := echo.Map{
		"id":     u.ID,
		"email":  u.Email,
		"role":   u.Role,
		"status": u.Status,
		"name":   "User",
	}
	if p, err := h.Profiles.GetByID(ctx, uid); err == nil {
		if p.Name != "" {
			out["name"] = p.Name
		}
		out["phone"] = p.Phone
		out["location"] = p.Location
	}
	return c.JSON(http.StatusOK, out)
}
