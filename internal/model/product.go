package model

import "time"

// ProductCategory is the closed set of produce categories a farmer can
// list under.
type ProductCategory string

const (
	CategoryGrains     ProductCategory = "Grains"
	CategoryVegetables ProductCategory = "Vegetables"
	CategoryFruits     ProductCategory = "Fruits"
	CategoryFibers     ProductCategory = "Fibers"
	CategorySpices     ProductCategory = "Spices"
	CategoryOther      ProductCategory = "Other"
)

// Valid reports whether c is a known category.
func (c ProductCategory) Valid() bool {
	switch c {
	case CategoryGrains, CategoryVegetables, CategoryFruits, CategoryFibers, CategorySpices, CategoryOther:
		return true
	default:
		return false
	}
}

// ProductStatus mirrors products.status. New listings start as "pending"
// until an admin approves them; accepting a bid moves them to "sold".
type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductPending   ProductStatus = "pending"
	ProductSold      ProductStatus = "sold"
	ProductRejected  ProductStatus = "rejected"
)

// Product mirrors the `products` table.
type Product struct {
	ID          uint64
	Title       string
	Description string
	Category    ProductCategory
	Price       float64 // asking price per unit
	Quantity    float64
	Unit        string // e.g. "quintal", "kg"
	ImageURL    *string
	FarmerID    uint64
	Location    *string
	Quality     *string
	HarvestDate *time.Time
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
