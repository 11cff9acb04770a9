package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/middleware"
	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// FarmerHandler serves the farmer-only product management API.
type FarmerHandler struct {
	Products *repository.ProductRepo
}

type productReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
	ImageURL    *string `json:"image_url"`
	Location    *string `json:"location"`
	Quality     *string `json:"quality"`
	HarvestDate string  `json:"harvest_date"` // YYYY-MM-DD, optional
}

func (r *productReq) validate() (model.Product, string) {
	r.Title = strings.TrimSpace(r.Title)
	r.Unit = strings.TrimSpace(r.Unit)
	if r.Title == "" {
		return model.Product{}, "title required"
	}
	cat := model.ProductCategory(r.Category)
	if !cat.Valid() {
		return model.Product{}, "unknown category"
	}
	if r.Price <= 0 || r.Quantity <= 0 {
		return model.Product{}, "price and quantity must be positive"
	}
	if r.Unit == "" {
		return model.Product{}, "unit required"
	}
	p := model.Product{
		Title:       r.Title,
		Description: strings.TrimSpace(r.Description),
		Category:    cat,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Unit:        r.Unit,
		ImageURL:    r.ImageURL,
		Location:    r.Location,
		Quality:     r.Quality,
	}
	if r.HarvestDate != "" {
		d, err := time.Parse("2006-01-02", r.HarvestDate)
		if err != nil {
			return model.Product{}, "harvest_date must be YYYY-MM-DD"
		}
		p.HarvestDate = &d
	}
	return p, ""
}

// CreateProduct inserts a new listing. It starts as "pending" and shows
// up publicly once an admin approves it.
func (h *FarmerHandler) CreateProduct(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p.FarmerID = uid
	p.Status = model.ProductPending

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Products.Create(ctx, p)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "status": p.Status})
}

// MyProducts lists the farmer's own listings in every status.
func (h *FarmerHandler) MyProducts(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Products.List(ctx, repository.ProductFilter{FarmerID: uid})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateProduct rewrites an owned listing. Sold listings are immutable.
func (h *FarmerHandler) UpdateProduct(c echo.Context) error {
	uid, err := middleware.UserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Products.Update(ctx, p, uid); err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"id": id})
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "sold products cannot be edited"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
}

// DeleteProduct removes an owned listing unless it is already sold.
func (h *FarmerHandler) DeleteProduct(c echo.Context) error {
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

	switch err := h.Products.Delete(ctx, id, uid); err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case sql.ErrNoRows:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
	case repository.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your product"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "sold products cannot be deleted"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
}

// FormOptions feeds the add-product form: the closed category set plus
// the units and quality grades the UI offers.
func (h *FarmerHandler) FormOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"categories": []model.ProductCategory{
			model.CategoryGrains, model.CategoryVegetables, model.CategoryFruits,
			model.CategoryFibers, model.CategorySpices, model.CategoryOther,
		},
		"units":     []string{"quintal", "kg", "ton", "bag"},
		"qualities": []string{"Premium", "Grade A", "Grade B", "Standard"},
	})
}
