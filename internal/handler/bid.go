package handler

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/queue"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// BidStore is the slice of the bid repository the handler needs. Tests
// substitute an in-memory implementation.
type BidStore interface {
	Create(ctx context.Context, b model.Bid) (uint64, error)
	ListByTrader(ctx context.Context, traderID uint64) ([]model.BidListing, error)
	ListByFarmer(ctx context.Context, farmerID uint64) ([]model.BidListing, error)
	ListByProduct(ctx context.Context, productID, farmerID uint64) ([]model.BidListing, error)
	Accept(ctx context.Context, bidID, farmerID uint64) (model.BidListing, model.Transaction, error)
	Reject(ctx context.Context, bidID, farmerID uint64) error
}

// BidHandler serves bid placement (traders) and the bid decision flow
// (farmers). Accepting a bid also publishes a BidAcceptedEvent to the
// broker; publishing is best-effort and never fails the request.
type BidHandler struct {
	Bids    BidStore
	Publish func(ctx context.Context, ev queue.BidAcceptedEvent) error
}

type placeBidReq struct {
	ProductID uint64  `json:"product_id"`
	Amount    float64 `json:"amount"`
	Quantity  float64 `json:"quantity"`
	Message   *string `json:"message"`
}

type bidListingResp struct {
	ID           uint64    `json:"id"`
	ProductID    uint64    `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	Unit         string    `json:"unit"`
	FarmerID     uint64    `json:"farmer_id"`
	FarmerName   string    `json:"farmer_name"`
	TraderID     uint64    `json:"trader_id"`
	TraderName   string    `json:"trader_name"`
	Amount       float64   `json:"amount"`
	Quantity     float64   `json:"quantity"`
	TotalValue   float64   `json:"total_value"`
	Message      *string   `json:"message,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toBidResp(l model.BidListing) bidListingResp {
	return bidListingResp{
		ID:           l.ID,
		ProductID:    l.ProductID,
		ProductTitle: l.ProductTitle,
		Unit:         l.Unit,
		FarmerID:     l.FarmerID,
		FarmerName:   l.FarmerName,
		TraderID:     l.TraderID,
		TraderName:   l.TraderName,
		Amount:       l.Amount,
		Quantity:     l.Quantity,
		TotalValue:   l.TotalValue,
		Message:      l.Message,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
	}
}

func bidItems(ls []model.BidListing) []bidListingResp {
	out := make([]bidListingResp, 0, len(ls))
	for _, l := range ls {
		out = append(out, toBidResp(l))
	}
	return out
}

// PlaceBid lets a trader offer on an available listing. Bidding on your
// own product is rejected, as is bidding on anything not available.
func (h *BidHandler) PlaceBid(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req placeBidReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProductID == 0 || req.Amount <= 0 || req.Quantity <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id, amount and quantity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Bids.Create(ctx, model.Bid{
		ProductID: req.ProductID,
		TraderID:  uid,
		Amount:    req.Amount,
		Quantity:  req.Quantity,
		Message:   req.Message,
	})
	switch err {
	case nil:
		return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": model.BidPending})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot bid on your own product"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "product is not open for bids"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "place bid failed"})
	}
}

// MyBids lists the calling trader's bids, newest first.
func (h *BidHandler) MyBids(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ls, err := h.Bids.ListByTrader(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bidItems(ls)})
}

// ReceivedBids lists every bid placed on the calling farmer's products.
func (h *BidHandler) ReceivedBids(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ls, err := h.Bids.ListByFarmer(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": bidItems(ls)})
}

// ProductBids lists the bids on one of the calling farmer's products.
func (h *BidHandler) ProductBids(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	pid, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ls, err := h.Bids.ListByProduct(ctx, pid, uid)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"items": bidItems(ls)})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// AcceptBid accepts a pending bid on the farmer's product. The decision
// is one database transaction; competing pending bids are rejected, the
// product is marked sold and a transaction row is created. The event is
// then handed to the broker for downstream consumers.
func (h *BidHandler) AcceptBid(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bidID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	listing, txn, err := h.Bids.Accept(ctx, bidID, uid)
	switch err {
	case nil:
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bid not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "bid is not pending"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "accept bid failed"})
	}

	if h.Publish != nil {
		ev := queue.BidAcceptedEvent{
			EventID:      uuid.NewString(),
			BidID:        listing.ID,
			ProductID:    listing.ProductID,
			ProductTitle: listing.ProductTitle,
			FarmerID:     listing.FarmerID,
			FarmerName:   listing.FarmerName,
			TraderID:     listing.TraderID,
			TraderName:   listing.TraderName,
			Amount:       listing.Amount,
			Quantity:     listing.Quantity,
			Unit:         listing.Unit,
			TotalValue:   listing.TotalValue,
			TxnID:        txn.ID,
			AcceptedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			if err := h.Publish(pctx, ev); err != nil {
				log.Printf("bid: publish accepted event %s failed: %v", ev.EventID, err)
			}
		}()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"bid":         toBidResp(listing),
		"transaction": echo.Map{"id": txn.ID, "status": txn.Status, "total_amount": txn.TotalAmount},
	})
}

// RejectBid marks a pending bid on the farmer's product as rejected.
func (h *BidHandler) RejectBid(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bidID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Bids.Reject(ctx, bidID, uid); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"id": bidID, "status": model.BidRejected})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bid not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "bid is not pending"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reject bid failed"})
	}
}
