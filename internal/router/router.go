// Package router maps the marketplace API surface onto handlers and
// wires the per-group middleware (JWT, roles, caching, rate limiting).
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/handler"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// RegisterRoutes registers routes that require no authentication at all.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated browse API. The caller
// passes the middleware chain (Redis cache, rate limiting); an empty
// chain is valid when Redis is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1", mws...)
	g.GET("/products", p.ListProducts)
	g.GET("/products/:id", p.GetProduct)
}

// RegisterAuth registers the authentication endpoints. Register, login
// and the refresh pair are open; logout and /me require a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", a.Logout)
	auth.GET("/me", a.Me)
}

// RegisterShared registers the endpoints every signed-in role uses:
// dashboard summary, settings, messaging and transaction tracking.
func RegisterShared(e *echo.Echo, d *handler.DashboardHandler, s *handler.SettingsHandler,
	m *handler.MessageHandler, t *handler.TransactionHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFarmer, model.RoleTrader, model.RoleAdmin),
	)

	g.GET("/dashboard", d.Summary)

	g.GET("/settings/profile", s.Get)
	g.PUT("/settings/profile", s.Update)

	g.POST("/messages", m.Send)
	g.GET("/messages/conversations", m.Conversations)
	g.GET("/messages/conversations/:id", m.Conversation)
	g.GET("/messages/unread", m.UnreadCount)

	g.GET("/transactions", t.ListMine)
	g.GET("/transactions/:id", t.Get)
	g.PATCH("/transactions/:id/status", t.UpdateStatus)
	g.PATCH("/transactions/:id/payment", t.UpdatePayment)
}
