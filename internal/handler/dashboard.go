package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// DashboardHandler builds the role-specific landing page summary. The
// same endpoint serves all three roles; the shape follows the caller's
// role claim.
type DashboardHandler struct {
	Products *repository.ProductRepo
	Bids     *repository.BidRepo
	Txns     *repository.TransactionRepo
	Messages *repository.MessageRepo
}

// Summary returns the numbers the dashboard cards show.
func (h *DashboardHandler) Summary(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := middleware.UserRole(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch role {
	case model.RoleAdmin:
		a, err := h.Txns.Analytics(ctx)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"role":                   role,
			"total_sales":            a.TotalSales,
			"total_products":         a.TotalProducts,
			"active_bids":            a.ActiveBids,
			"completed_transactions": a.CompletedTransactions,
		})
	case model.RoleTrader:
		return h.traderSummary(ctx, c, uid)
	default:
		return h.farmerSummary(ctx, c, uid)
	}
}

func (h *DashboardHandler) farmerSummary(ctx context.Context, c echo.Context, uid uint64) error {
	products, err := h.Products.List(ctx, repository.ProductFilter{FarmerID: uid})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	active := 0
	for _, p := range products {
		if p.Status == model.ProductAvailable {
			active++
		}
	}
	pendingBids, err := h.Bids.CountActive(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	txns, err := h.Txns.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	unread, err := h.Messages.UnreadCount(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":            model.RoleFarmer,
		"total_products":  len(products),
		"active_listings": active,
		"pending_bids":    pendingBids,
		"transactions":    len(txns),
		"unread_messages": unread,
	})
}

func (h *DashboardHandler) traderSummary(ctx context.Context, c echo.Context, uid uint64) error {
	bids, err := h.Bids.ListByTrader(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	pending, accepted := 0, 0
	for _, b := range bids {
		switch b.Status {
		case model.BidPending:
			pending++
		case model.BidAccepted:
			accepted++
		}
	}
	txns, err := h.Txns.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	unread, err := h.Messages.UnreadCount(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"role":            model.RoleTrader,
		"total_bids":      len(bids),
		"pending_bids":    pending,
		"accepted_bids":   accepted,
		"transactions":    len(txns),
		"unread_messages": unread,
	})
}
