package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// AdminHandler serves the moderation and market-overview surface. Every
// route here sits behind RequireRole(admin).
type AdminHandler struct {
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
	Products *repository.ProductRepo
	Txns     *repository.TransactionRepo
}

type adminUser struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers returns all users, optionally filtered by role and status.
// Password hashes never leave the repository layer response unfiltered.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	role := strings.TrimSpace(c.QueryParam("role"))
	status := strings.TrimSpace(c.QueryParam("status"))
	users, err := h.Users.List(ctx, role, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]adminUser, 0, len(users))
	for _, u := range users {
		name, _ := h.Profiles.Name(ctx, u.ID)
		out = append(out, adminUser{
			ID:        u.ID,
			Email:     u.Email,
			Name:      name,
			Role:      string(u.Role),
			Status:    string(u.Status),
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

type userStatusReq struct {
	Status string `json:"status"`
}

// UpdateUserStatus activates, deactivates or blocks an account.
func (h *AdminHandler) UpdateUserStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req userStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.UserStatus(req.Status)
	switch status {
	case model.UserActive, model.UserInactive, model.UserPending, model.UserBlocked:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// PendingProducts lists listings awaiting moderation.
func (h *AdminHandler) PendingProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Products.List(ctx, repository.ProductFilter{Status: string(model.ProductPending)})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type moderateReq struct {
	Status string `json:"status"` // available | rejected
}

// ModerateProduct approves or rejects a pending listing.
func (h *AdminHandler) ModerateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req moderateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.ProductStatus(req.Status)
	if status != model.ProductAvailable && status != model.ProductRejected {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be available or rejected"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}

// ListTransactions returns the most recent transactions market-wide.
func (h *AdminHandler) ListTransactions(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ts, err := h.Txns.ListAll(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]txListingResp, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTxResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Analytics returns the market overview numbers.
func (h *AdminHandler) Analytics(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Txns.Analytics(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	recent := make([]txListingResp, 0, len(a.RecentTransactions))
	for _, t := range a.RecentTransactions {
		recent = append(recent, toTxResp(t))
	}
	popular := make([]echo.Map, 0, len(a.PopularProducts))
	for _, p := range a.PopularProducts {
		popular = append(popular, echo.Map{"id": p.ID, "title": p.Title, "sales": p.Sales})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_sales":            a.TotalSales,
		"total_products":         a.TotalProducts,
		"active_bids":            a.ActiveBids,
		"completed_transactions": a.CompletedTransactions,
		"recent_transactions":    recent,
		"popular_products":       popular,
	})
}
