package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/guard"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/session"
)

// accessTokenCookie lets browser navigations carry the access token
// without an Authorization header.
const accessTokenCookie = "access_token"

// RouteGuard applies the navigation guard to a page route: it builds a
// session snapshot from the request's access token, evaluates the guard
// decision for the allowed roles, and maps the outcome onto HTTP.
// Redirects discard the attempted destination. An empty role list means
// any authenticated role may render.
func RouteGuard(secret string, profiles session.ProfileStore, roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := snapshotFromRequest(c, secret, profiles)
			switch d := guard.Evaluate(snap, roles, guard.PendingWait); d.Outcome {
			case guard.OutcomeLoading:
				return c.JSON(http.StatusOK, echo.Map{"status": "loading"})
			case guard.OutcomeRedirect:
				return c.Redirect(http.StatusSeeOther, d.Location)
			default:
				if snap.User != nil {
					c.Set("user_id", snap.User.ID)
					c.Set("email", snap.User.Email)
					c.Set("role", string(snap.User.Role))
					c.Set("app_user", snap.User)
				}
				return next(c)
			}
		}
	}
}

// snapshotFromRequest derives a per-request session snapshot. Each HTTP
// request is self-contained, so the snapshot is never in the loading
// state: the token either validates or it does not.
func snapshotFromRequest(c echo.Context, secret string, profiles session.ProfileStore) session.Snapshot {
	raw := bearerOrCookie(c)
	if raw == "" {
		return session.Snapshot{}
	}

	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return session.Snapshot{}
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return session.Snapshot{}
	}

	uid, _ := claims["sub"].(float64)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	user := &session.AppUser{
		ID:     uint64(uid),
		Email:  email,
		Name:   "User",
		Role:   model.Role(role),
		Status: "active",
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if p, err := profiles.GetByID(ctx, user.ID); err == nil {
		user.Name = p.Name
		user.Role = p.Role
		user.Phone = p.Phone
		user.Location = p.Location
	}

	return session.Snapshot{Authenticated: true, User: user}
}

func bearerOrCookie(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if ck, err := c.Cookie(accessTokenCookie); err == nil {
		return ck.Value
	}
	return ""
}
