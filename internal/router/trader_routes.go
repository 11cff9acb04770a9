package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/handler"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// RegisterTrader registers trader-scoped endpoints under /v1.
func RegisterTrader(e *echo.Echo, b *handler.BidHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleTrader),
	)

	g.POST("/bids", b.PlaceBid)
	g.GET("/my-bids", b.MyBids)
}
