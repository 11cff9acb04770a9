// Package handler exposes the HTTP handlers for the marketplace: public
// browsing, the per-role authenticated APIs and the admin surface.
// Responses filter out fields that do not belong to the caller.
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

// PublicHandler serves the unauthenticated browsing API. Only available
// listings are exposed and farmer contact data is reduced to a name.
type PublicHandler struct {
	Products *repository.ProductRepo
	Profiles *repository.ProfileRepo
}

// publicProduct is a listing as shown to anyone browsing the market.
type publicProduct struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Price       float64    `json:"price"`
	Quantity    float64    `json:"quantity"`
	Unit        string     `json:"unit"`
	ImageURL    *string    `json:"image_url,omitempty"`
	FarmerID    uint64     `json:"farmer_id"`
	FarmerName  string     `json:"farmer_name"`
	Location    *string    `json:"location,omitempty"`
	Quality     *string    `json:"quality,omitempty"`
	HarvestDate *time.Time `json:"harvest_date,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (h *PublicHandler) toPublic(ctx context.Context, p model.Product, names map[uint64]string) publicProduct {
	name, ok := names[p.FarmerID]
	if !ok {
		name, _ = h.Profiles.Name(ctx, p.FarmerID)
		if name == "" {
			name = "Farmer"
		}
		names[p.FarmerID] = name
	}
	return publicProduct{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		Quantity:    p.Quantity,
		Unit:        p.Unit,
		ImageURL:    p.ImageURL,
		FarmerID:    p.FarmerID,
		FarmerName:  name,
		Location:    p.Location,
		Quality:     p.Quality,
		HarvestDate: p.HarvestDate,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
}

// ListProducts returns available listings, optionally filtered by
// category and a title search. Responses sit behind the Redis cache
// middleware, so repeated browses of the same filter are served hot.
func (h *PublicHandler) ListProducts(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	f := repository.ProductFilter{
		Status: string(model.ProductAvailable),
		Search: strings.TrimSpace(c.QueryParam("q")),
	}
	if cat := strings.TrimSpace(c.QueryParam("category")); cat != "" {
		if !model.ProductCategory(cat).Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		}
		f.Category = cat
	}
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			f.Limit = n
		}
	}

	items, err := h.Products.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	names := make(map[uint64]string)
	out := make([]publicProduct, 0, len(items))
	for _, p := range items {
		out = append(out, h.toPublic(ctx, p, names))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetProduct returns one listing. Sold and pending listings stay visible
// here so a trader can follow a negotiation to its end.
func (h *PublicHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	names := make(map[uint64]string)
	return c.JSON(http.StatusOK, h.toPublic(ctx, p, names))
}
