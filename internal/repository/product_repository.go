package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// ProductRepo persists the 'products' table.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productColumns = "id,title,description,category,price,quantity,unit,image_url,farmer_id,location,quality,harvest_date,status,created_at,updated_at"

// ProductFilter narrows List results. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Status   string
	FarmerID uint64
	Search   string // matched against title
	Limit    int
}

// Create inserts a listing and returns its ID. New listings start in the
// status the caller provides (pending until an admin approves).
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO products
		 (title, description, category, price, quantity, unit, image_url, farmer_id, location, quality, harvest_date, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title, p.Description, string(p.Category), p.Price, p.Quantity, p.Unit,
		p.ImageURL, p.FarmerID, p.Location, p.Quality, p.HarvestDate, string(p.Status))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a single product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id)
	return scanProduct(row)
}

// List returns products matching the filter, newest first.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	q := "SELECT " + productColumns + " FROM products"
	var (
		conds []string
		args  []any
	)
	if f.Category != "" {
		conds = append(conds, "category=?")
		args = append(args, f.Category)
	}
	if f.Status != "" {
		conds = append(conds, "status=?")
		args = append(args, f.Status)
	}
	if f.FarmerID != 0 {
		conds = append(conds, "farmer_id=?")
		args = append(args, f.FarmerID)
	}
	if f.Search != "" {
		conds = append(conds, "title LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update rewrites the editable fields of a listing the farmer owns.
// Sold products cannot be edited.
func (r *ProductRepo) Update(ctx context.Context, p model.Product, farmerID uint64) error {
	cur, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if cur.FarmerID != farmerID {
		return ErrForbidden
	}
	if cur.Status == model.ProductSold {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE products SET title=?, description=?, category=?, price=?, quantity=?, unit=?,
		 image_url=?, location=?, quality=?, harvest_date=? WHERE id=?`,
		p.Title, p.Description, string(p.Category), p.Price, p.Quantity, p.Unit,
		p.ImageURL, p.Location, p.Quality, p.HarvestDate, p.ID)
	return err
}

// UpdateStatus sets products.status. Admin moderation and the bid
// acceptance flow both go through it.
func (r *ProductRepo) UpdateStatus(ctx context.Context, id uint64, status model.ProductStatus) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE products SET status=? WHERE id=?", string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a listing owned by farmerID. Listings with accepted
// bids (sold) cannot be deleted.
func (r *ProductRepo) Delete(ctx context.Context, id, farmerID uint64) error {
	cur, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if cur.FarmerID != farmerID {
		return ErrForbidden
	}
	if cur.Status == model.ProductSold {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	return err
}

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var (
		p           model.Product
		imageURL    sql.NullString
		location    sql.NullString
		quality     sql.NullString
		harvestDate sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Price, &p.Quantity, &p.Unit,
		&imageURL, &p.FarmerID, &location, &quality, &harvestDate, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	if location.Valid {
		p.Location = &location.String
	}
	if quality.Valid {
		p.Quality = &quality.String
	}
	if harvestDate.Valid {
		t := harvestDate.Time
		p.HarvestDate = &t
	}
	return p, nil
}
