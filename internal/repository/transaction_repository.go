package repository

import (
	"context"
	"database/sql"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
)

// TransactionRepo persists the 'transactions' table and computes the
// aggregates behind the admin market overview.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

const txListingColumns = `t.id, t.product_id, t.bid_id, t.farmer_id, t.trader_id, t.quantity,
	t.total_amount, t.status, t.payment_status, t.payment_method, t.delivery_address,
	t.delivery_date, t.created_at,
	p.title, COALESCE(fp.name,''), COALESCE(tp.name,'')`

const txListingJoins = `FROM transactions t
	JOIN products p ON p.id = t.product_id
	LEFT JOIN profiles fp ON fp.id = t.farmer_id
	LEFT JOIN profiles tp ON tp.id = t.trader_id`

// GetByID fetches one transaction. Only a party to the transaction (or
// an admin, enforced at the handler) may read it.
func (r *TransactionRepo) GetByID(ctx context.Context, id uint64) (model.TransactionListing, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+txListingColumns+" "+txListingJoins+" WHERE t.id=? LIMIT 1", id)
	return scanTxListing(row)
}

// ListByUser returns transactions where the user is either party.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.TransactionListing, error) {
	return r.list(ctx,
		"SELECT "+txListingColumns+" "+txListingJoins+" WHERE t.farmer_id=? OR t.trader_id=? ORDER BY t.created_at DESC",
		userID, userID)
}

// ListAll returns every transaction, newest first, for the admin console.
func (r *TransactionRepo) ListAll(ctx context.Context, limit int) ([]model.TransactionListing, error) {
	q := "SELECT " + txListingColumns + " " + txListingJoins + " ORDER BY t.created_at DESC"
	if limit > 0 {
		return r.list(ctx, q+" LIMIT ?", limit)
	}
	return r.list(ctx, q)
}

func (r *TransactionRepo) list(ctx context.Context, q string, args ...any) ([]model.TransactionListing, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TransactionListing
	for rows.Next() {
		l, err := scanTxListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateStatus sets the fulfilment status. userID must be a party to the
// transaction; pass 0 to skip the ownership check (admin path).
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id, userID uint64, status model.TransactionStatus) error {
	if err := r.checkParty(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE transactions SET status=? WHERE id=?", string(status), id)
	return err
}

// UpdatePayment sets the payment status and optionally the method.
func (r *TransactionRepo) UpdatePayment(ctx context.Context, id, userID uint64, status model.PaymentStatus, method *string) error {
	if err := r.checkParty(ctx, id, userID); err != nil {
		return err
	}
	if method != nil {
		_, err := r.DB.ExecContext(ctx,
			"UPDATE transactions SET payment_status=?, payment_method=? WHERE id=?", string(status), *method, id)
		return err
	}
	_, err := r.DB.ExecContext(ctx, "UPDATE transactions SET payment_status=? WHERE id=?", string(status), id)
	return err
}

func (r *TransactionRepo) checkParty(ctx context.Context, id, userID uint64) error {
	var farmerID, traderID uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT farmer_id, trader_id FROM transactions WHERE id=? LIMIT 1", id).Scan(&farmerID, &traderID)
	if err != nil {
		return err
	}
	if userID != 0 && userID != farmerID && userID != traderID {
		return ErrForbidden
	}
	return nil
}

// Analytics computes the admin market overview in a handful of aggregate
// queries. Recent transactions are capped at ten, popular products at five.
func (r *TransactionRepo) Analytics(ctx context.Context) (model.Analytics, error) {
	var a model.Analytics

	err := r.DB.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total_amount),0), COUNT(*) FROM transactions WHERE status=?",
		string(model.TxCompleted)).Scan(&a.TotalSales, &a.CompletedTransactions)
	if err != nil {
		return model.Analytics{}, err
	}
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&a.TotalProducts); err != nil {
		return model.Analytics{}, err
	}
	if err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bids WHERE status=?", string(model.BidPending)).Scan(&a.ActiveBids); err != nil {
		return model.Analytics{}, err
	}

	recent, err := r.ListAll(ctx, 10)
	if err != nil {
		return model.Analytics{}, err
	}
	a.RecentTransactions = recent

	rows, err := r.DB.QueryContext(ctx,
		`SELECT p.id, p.title, COUNT(t.id) AS sales
		 FROM transactions t JOIN products p ON p.id=t.product_id
		 GROUP BY p.id, p.title ORDER BY sales DESC LIMIT 5`)
	if err != nil {
		return model.Analytics{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var pp model.PopularProduct
		if err := rows.Scan(&pp.ID, &pp.Title, &pp.Sales); err != nil {
			return model.Analytics{}, err
		}
		a.PopularProducts = append(a.PopularProducts, pp)
	}
	return a, rows.Err()
}

func scanTxListing(row interface{ Scan(...any) error }) (model.TransactionListing, error) {
	var (
		l            model.TransactionListing
		bidID        sql.NullInt64
		method       sql.NullString
		address      sql.NullString
		deliveryDate sql.NullTime
	)
	err := row.Scan(&l.ID, &l.ProductID, &bidID, &l.FarmerID, &l.TraderID, &l.Quantity,
		&l.TotalAmount, &l.Status, &l.PaymentStatus, &method, &address,
		&deliveryDate, &l.CreatedAt,
		&l.ProductTitle, &l.FarmerName, &l.TraderName)
	if err != nil {
		return model.TransactionListing{}, err
	}
	if bidID.Valid {
		v := uint64(bidID.Int64)
		l.BidID = &v
	}
	if method.Valid {
		l.PaymentMethod = &method.String
	}
	if address.Valid {
		l.DeliveryAddress = &address.String
	}
	if deliveryDate.Valid {
		t := deliveryDate.Time
		l.DeliveryDate = &t
	}
	return l, nil
}
