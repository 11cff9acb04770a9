package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// TransactionHandler serves fulfilment tracking for both trade parties.
// Admins reach transactions through the admin surface instead.
type TransactionHandler struct {
	Txns *repository.TransactionRepo
}

type txListingResp struct {
	ID            uint64     `json:"id"`
	ProductID     uint64     `json:"product_id"`
	ProductTitle  string     `json:"product_title"`
	BidID         *uint64    `json:"bid_id,omitempty"`
	FarmerID      uint64     `json:"farmer_id"`
	FarmerName    string     `json:"farmer_name"`
	TraderID      uint64     `json:"trader_id"`
	TraderName    string     `json:"trader_name"`
	Quantity      float64    `json:"quantity"`
	TotalAmount   float64    `json:"total_amount"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
	DeliveryDate  *time.Time `json:"delivery_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toTxResp(t model.TransactionListing) txListingResp {
	return txListingResp{
		ID:            t.ID,
		ProductID:     t.ProductID,
		ProductTitle:  t.ProductTitle,
		BidID:         t.BidID,
		FarmerID:      t.FarmerID,
		FarmerName:    t.FarmerName,
		TraderID:      t.TraderID,
		TraderName:    t.TraderName,
		Quantity:      t.Quantity,
		TotalAmount:   t.TotalAmount,
		Status:        string(t.Status),
		PaymentStatus: string(t.PaymentStatus),
		PaymentMethod: t.PaymentMethod,
		DeliveryDate:  t.DeliveryDate,
		CreatedAt:     t.CreatedAt,
	}
}

// ListMine returns the transactions the caller is a party to.
func (h *TransactionHandler) ListMine(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ts, err := h.Txns.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]txListingResp, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTxResp(t))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get returns one transaction if the caller is a party to it.
func (h *TransactionHandler) Get(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Txns.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if t.FarmerID != uid && t.TraderID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your transaction"})
	}
	return c.JSON(http.StatusOK, toTxResp(t))
}

type txStatusReq struct {
	Status string `json:"status"`
}

// UpdateStatus moves a transaction through its fulfilment states. Either
// party may update; repository-side the caller must be on the row.
func (h *TransactionHandler) UpdateStatus(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req txStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.TransactionStatus(req.Status)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Txns.UpdateStatus(ctx, id, uid, status); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your transaction"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

type txPaymentReq struct {
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod *string `json:"payment_method"`
}

// UpdatePayment records payment progress on a transaction.
func (h *TransactionHandler) UpdatePayment(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req txPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status := model.PaymentStatus(req.PaymentStatus)
	if !status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown payment status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Txns.UpdatePayment(ctx, id, uid, status, req.PaymentMethod); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"id": id, "payment_status": status})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your transaction"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}
