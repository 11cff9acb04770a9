package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/handler"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// RegisterAdmin registers the moderation surface under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id/status", a.UpdateUserStatus)

	g.GET("/products/pending", a.PendingProducts)
	g.PATCH("/products/:id/status", a.ModerateProduct)

	g.GET("/transactions", a.ListTransactions)
	g.GET("/analytics", a.Analytics)
}
