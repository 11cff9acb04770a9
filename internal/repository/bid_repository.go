package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// BidRepo persists the 'bids' table and owns the bid decision flow.
// Accepting a bid is a single transaction: the bid is accepted, competing
// pending bids are rejected, the product is marked sold and a
// transactions row is created.
type BidRepo struct{ DB *sql.DB }

func NewBidRepo(db *sql.DB) *BidRepo { return &BidRepo{DB: db} }

const bidListingColumns = `b.id, b.product_id, b.trader_id, b.amount, b.quantity, b.total_value,
	b.message, b.status, b.created_at, b.updated_at,
	p.title, p.unit, p.farmer_id,
	COALESCE(fp.name,''), COALESCE(tp.name,'')`

const bidListingJoins = `FROM bids b
	JOIN products p ON p.id = b.product_id
	LEFT JOIN profiles fp ON fp.id = p.farmer_id
	LEFT JOIN profiles tp ON tp.id = b.trader_id`

// Create inserts a pending bid and returns its ID. The product must be
// available and must not belong to the bidding trader.
func (r *BidRepo) Create(ctx context.Context, b model.Bid) (uint64, error) {
	var (
		farmerID uint64
		status   model.ProductStatus
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT farmer_id, status FROM products WHERE id=? LIMIT 1", b.ProductID).
		Scan(&farmerID, &status)
	if err != nil {
		return 0, err
	}
	if farmerID == b.TraderID {
		return 0, ErrForbidden
	}
	if status != model.ProductAvailable {
		return 0, ErrConflict
	}

	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO bids (product_id, trader_id, amount, quantity, total_value, message, status)
		 VALUES (?,?,?,?,?,?,?)`,
		b.ProductID, b.TraderID, b.Amount, b.Quantity, b.Amount*b.Quantity, b.Message, string(model.BidPending))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListByTrader returns the trader's bids, newest first.
func (r *BidRepo) ListByTrader(ctx context.Context, traderID uint64) ([]model.BidListing, error) {
	return r.listWhere(ctx, "WHERE b.trader_id=?", traderID)
}

// ListByFarmer returns bids placed on the farmer's products, newest first.
func (r *BidRepo) ListByFarmer(ctx context.Context, farmerID uint64) ([]model.BidListing, error) {
	return r.listWhere(ctx, "WHERE p.farmer_id=?", farmerID)
}

// ListByProduct returns bids on one product, for its owning farmer.
func (r *BidRepo) ListByProduct(ctx context.Context, productID, farmerID uint64) ([]model.BidListing, error) {
	var owner uint64
	err := r.DB.QueryRowContext(ctx, "SELECT farmer_id FROM products WHERE id=? LIMIT 1", productID).Scan(&owner)
	if err != nil {
		return nil, err
	}
	if owner != farmerID {
		return nil, ErrForbidden
	}
	return r.listWhere(ctx, "WHERE b.product_id=?", productID)
}

func (r *BidRepo) listWhere(ctx context.Context, where string, arg any) ([]model.BidListing, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+bidListingColumns+" "+bidListingJoins+" "+where+" ORDER BY b.created_at DESC", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BidListing
	for rows.Next() {
		l, err := scanBidListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Accept accepts a pending bid on behalf of the owning farmer. It
// rejects competing pending bids, marks the product sold and creates the
// transaction, all in one database transaction. It returns the created
// transaction and the accepted bid joined with its display fields.
func (r *BidRepo) Accept(ctx context.Context, bidID, farmerID uint64) (model.BidListing, model.Transaction, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		"SELECT "+bidListingColumns+" "+bidListingJoins+" WHERE b.id=? FOR UPDATE", bidID)
	listing, err := scanBidListing(row)
	if err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}
	if listing.FarmerID != farmerID {
		return model.BidListing{}, model.Transaction{}, ErrForbidden
	}
	if listing.Status != model.BidPending {
		return model.BidListing{}, model.Transaction{}, ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE bids SET status=? WHERE id=?", string(model.BidAccepted), bidID); err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE bids SET status=? WHERE product_id=? AND id<>? AND status=?",
		string(model.BidRejected), listing.ProductID, bidID, string(model.BidPending)); err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE products SET status=? WHERE id=?", string(model.ProductSold), listing.ProductID); err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (product_id, bid_id, farmer_id, trader_id, quantity, total_amount, status, payment_status)
		 VALUES (?,?,?,?,?,?,?,?)`,
		listing.ProductID, bidID, farmerID, listing.TraderID, listing.Quantity, listing.TotalValue,
		string(model.TxPending), string(model.PaymentPending))
	if err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}
	txnID, err := res.LastInsertId()
	if err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.BidListing{}, model.Transaction{}, err
	}

	listing.Status = model.BidAccepted
	bidRef := bidID
	txn := model.Transaction{
		ID:            uint64(txnID),
		ProductID:     listing.ProductID,
		BidID:         &bidRef,
		FarmerID:      farmerID,
		TraderID:      listing.TraderID,
		Quantity:      listing.Quantity,
		TotalAmount:   listing.TotalValue,
		Status:        model.TxPending,
		PaymentStatus: model.PaymentPending,
	}
	return listing, txn, nil
}

// Reject marks a pending bid rejected on behalf of the owning farmer.
func (r *BidRepo) Reject(ctx context.Context, bidID, farmerID uint64) error {
	var (
		owner  uint64
		status model.BidStatus
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT p.farmer_id, b.status FROM bids b JOIN products p ON p.id=b.product_id WHERE b.id=? LIMIT 1`,
		bidID).Scan(&owner, &status)
	if err != nil {
		return err
	}
	if owner != farmerID {
		return ErrForbidden
	}
	if status != model.BidPending {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE bids SET status=? WHERE id=?", string(model.BidRejected), bidID)
	return err
}

// CountActive returns the number of pending bids, optionally scoped to
// one farmer's products.
func (r *BidRepo) CountActive(ctx context.Context, farmerID uint64) (int, error) {
	var (
		n   int
		err error
	)
	if farmerID != 0 {
		err = r.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bids b JOIN products p ON p.id=b.product_id WHERE b.status=? AND p.farmer_id=?`,
			string(model.BidPending), farmerID).Scan(&n)
	} else {
		err = r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM bids WHERE status=?", string(model.BidPending)).Scan(&n)
	}
	return n, err
}

func scanBidListing(row interface{ Scan(...any) error }) (model.BidListing, error) {
	var (
		l       model.BidListing
		message sql.NullString
	)
	err := row.Scan(&l.ID, &l.ProductID, &l.TraderID, &l.Amount, &l.Quantity, &l.TotalValue,
		&message, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		&l.ProductTitle, &l.Unit, &l.FarmerID, &l.FarmerName, &l.TraderName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BidListing{}, sql.ErrNoRows
		}
		return model.BidListing{}, err
	}
	if message.Valid {
		l.Message = &message.String
	}
	return l, nil
}
