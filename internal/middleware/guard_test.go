package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
	"github.com/yuvrajxx14mu/marketing-yard/internal/session"
	"github.com/yuvrajxx14mu/marketing-yard/internal/utils"
)

const testSecret = "guard-test-secret"

type staticProfiles map[uint64]model.Profile

func (s staticProfiles) GetByID(_ context.Context, id uint64) (model.Profile, error) {
	p, ok := s[id]
	if !ok {
		return model.Profile{}, repository.ErrProfileNotFound
	}
	return p, nil
}

func guardedEcho(t *testing.T, profiles session.ProfileStore) *echo.Echo {
	t.Helper()
	e := echo.New()
	render := func(name string) echo.HandlerFunc {
		return func(c echo.Context) error {
			return c.JSON(http.StatusOK, echo.Map{"page": name})
		}
	}
	e.GET("/dashboard", render("dashboard"),
		RouteGuard(testSecret, profiles, model.RoleFarmer, model.RoleTrader, model.RoleAdmin))
	e.GET("/add-product", render("add-product"),
		RouteGuard(testSecret, profiles, model.RoleFarmer))
	e.GET("/admin", render("admin"),
		RouteGuard(testSecret, profiles, model.RoleAdmin))
	return e
}

func accessTokenFor(t *testing.T, uid uint64, email string, role model.Role) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, uid, email, string(role), 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	return tok.Token
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouteGuardRedirectsAnonymousToAuth(t *testing.T) {
	e := guardedEcho(t, staticProfiles{})

	for _, path := range []string{"/dashboard", "/add-product", "/admin"} {
		rec := get(e, path, "")
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("GET %s code = %d, want 303", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/auth" {
			t.Fatalf("GET %s redirected to %q, want /auth", path, loc)
		}
	}
}

func TestRouteGuardRejectsGarbageToken(t *testing.T) {
	e := guardedEcho(t, staticProfiles{})

	rec := get(e, "/dashboard", "not-a-jwt")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth" {
		t.Fatalf("code=%d location=%q, want 303 /auth", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouteGuardRendersForAllowedRole(t *testing.T) {
	profiles := staticProfiles{1: {ID: 1, Name: "Ramesh", Role: model.RoleFarmer}}
	e := guardedEcho(t, profiles)
	token := accessTokenFor(t, 1, "ram@example.com", model.RoleFarmer)

	for _, path := range []string{"/dashboard", "/add-product"} {
		rec := get(e, path, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s code = %d, want 200 (%s)", path, rec.Code, rec.Body.String())
		}
	}
}

func TestRouteGuardRedirectsWrongRole(t *testing.T) {
	profiles := staticProfiles{
		2: {ID: 2, Name: "Trader", Role: model.RoleTrader},
		3: {ID: 3, Name: "Boss", Role: model.RoleAdmin},
	}
	e := guardedEcho(t, profiles)

	// Trader on a farmer page lands on the dashboard.
	rec := get(e, "/add-product", accessTokenFor(t, 2, "t@example.com", model.RoleTrader))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("trader: code=%d location=%q, want 303 /dashboard", rec.Code, rec.Header().Get("Location"))
	}

	// Trader on the admin page also lands on the dashboard, never /admin.
	rec = get(e, "/admin", accessTokenFor(t, 2, "t@example.com", model.RoleTrader))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("trader on /admin: code=%d location=%q, want 303 /dashboard", rec.Code, rec.Header().Get("Location"))
	}

	// Admin on a farmer page lands on the admin home.
	rec = get(e, "/add-product", accessTokenFor(t, 3, "a@example.com", model.RoleAdmin))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin" {
		t.Fatalf("admin: code=%d location=%q, want 303 /admin", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouteGuardProfileRoleOverridesClaim(t *testing.T) {
	// The profile row is authoritative: a stale role claim in the token
	// does not widen access.
	profiles := staticProfiles{4: {ID: 4, Name: "Demoted", Role: model.RoleTrader}}
	e := guardedEcho(t, profiles)

	rec := get(e, "/add-product", accessTokenFor(t, 4, "d@example.com", model.RoleFarmer))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/dashboard" {
		t.Fatalf("code=%d location=%q, want 303 /dashboard", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouteGuardAcceptsCookieToken(t *testing.T) {
	profiles := staticProfiles{1: {ID: 1, Name: "Ramesh", Role: model.RoleFarmer}}
	e := guardedEcho(t, profiles)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: accessTokenFor(t, 1, "ram@example.com", model.RoleFarmer)})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
}
