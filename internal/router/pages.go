package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/session"
)

// RegisterPages registers the navigable page surface. Each page route
// runs the route guard: unauthenticated visitors are redirected to
// /auth, wrong-role visitors to their own landing page, and an
// unresolved session renders the loading placeholder. The page body is
// a shell the client hydrates from the JSON API.
func RegisterPages(e *echo.Echo, jwtSecret string, profiles session.ProfileStore) {
	farmer := middleware.RouteGuard(jwtSecret, profiles, model.RoleFarmer)
	anyRole := middleware.RouteGuard(jwtSecret, profiles,
		model.RoleFarmer, model.RoleTrader, model.RoleAdmin)
	admin := middleware.RouteGuard(jwtSecret, profiles, model.RoleAdmin)
	authed := middleware.RouteGuard(jwtSecret, profiles) // any authenticated role

	e.GET("/", page("home"))
	e.GET("/auth", authPage)

	e.GET("/dashboard", page("dashboard"), anyRole)
	e.GET("/settings", page("settings"), authed)
	e.GET("/messages", page("messages"), anyRole)
	e.GET("/transactions", page("transactions"), anyRole)
	e.GET("/add-product", page("add-product"), farmer)
	e.GET("/admin", page("admin"), admin)
}

// page returns a shell response naming the view and echoing the
// resolved user the guard placed on the context.
func page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		out := echo.Map{"page": name}
		if u, ok := c.Get("app_user").(*session.AppUser); ok && u != nil {
			out["user"] = echo.Map{
				"id":    u.ID,
				"email": u.Email,
				"name":  u.Name,
				"role":  u.Role,
			}
		}
		return c.JSON(http.StatusOK, out)
	}
}

// authPage serves the combined sign-in/sign-up view. ?signup=true opens
// it in registration mode.
func authPage(c echo.Context) error {
	mode := "login"
	if c.QueryParam("signup") == "true" {
		mode = "signup"
	}
	return c.JSON(http.StatusOK, echo.Map{"page": "auth", "mode": mode})
}
