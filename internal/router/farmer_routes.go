package router

import (
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/handler"
	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// RegisterFarmer registers farmer-scoped endpoints under /v1. All routes
// require a valid JWT and the farmer role.
func RegisterFarmer(e *echo.Echo, f *handler.FarmerHandler, b *handler.BidHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleFarmer),
	)

	// ---- Listings ----
	g.POST("/products", f.CreateProduct)
	g.GET("/my-products", f.MyProducts)
	g.PUT("/products/:id", f.UpdateProduct)
	g.PATCH("/products/:id", f.UpdateProduct)
	g.DELETE("/products/:id", f.DeleteProduct)
	g.GET("/products/form-options", f.FormOptions)

	// ---- Bid decisions ----
	g.GET("/bids/received", b.ReceivedBids)
	g.GET("/products/:id/bids", b.ProductBids)
	g.POST("/bids/:id/accept", b.AcceptBid)
	g.POST("/bids/:id/reject", b.RejectBid)
}
