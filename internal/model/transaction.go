package model

import "time"

// TransactionStatus mirrors transactions.status.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxInTransit TransactionStatus = "in-transit"
	TxCanceled  TransactionStatus = "canceled"
	TxDisputed  TransactionStatus = "disputed"
)

// Valid reports whether s is a known transaction status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TxPending, TxCompleted, TxInTransit, TxCanceled, TxDisputed:
		return true
	default:
		return false
	}
}

// PaymentStatus mirrors transactions.payment_status.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentRefunded, PaymentFailed:
		return true
	default:
		return false
	}
}

// Transaction mirrors the `transactions` table. A row is created when a
// farmer accepts a bid; both parties can then track fulfilment on it.
type Transaction struct {
	ID              uint64
	ProductID       uint64
	BidID           *uint64
	FarmerID        uint64
	TraderID        uint64
	Quantity        float64
	TotalAmount     float64
	Status          TransactionStatus
	PaymentStatus   PaymentStatus
	PaymentMethod   *string
	DeliveryAddress *string
	DeliveryDate    *time.Time
	CreatedAt       time.Time
}

// TransactionListing joins a transaction with display names for list views.
type TransactionListing struct {
	Transaction
	ProductTitle string
	FarmerName   string
	TraderName   string
}

// Analytics aggregates the numbers shown on the admin market overview.
type Analytics struct {
	TotalSales            float64
	TotalProducts         int
	ActiveBids            int
	CompletedTransactions int
	RecentTransactions    []TransactionListing
	PopularProducts       []PopularProduct
}

// PopularProduct is one row of the "most sold" ranking.
type PopularProduct struct {
	ID    uint64
	Title string
	Sales int
}
