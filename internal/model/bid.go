package model

import "time"

// BidStatus mirrors bids.status.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidExpired  BidStatus = "expired"
)

// Bid mirrors the `bids` table. Amount is the per-unit offer; TotalValue
// is stored denormalized so listings and events do not have to recompute.
type Bid struct {
	ID         uint64
	ProductID  uint64
	TraderID   uint64
	Amount     float64
	Quantity   float64
	TotalValue float64
	Message    *string
	Status     BidStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BidListing joins a bid with the product and counterparty fields list
// views need, so handlers do not issue N+1 lookups.
type BidListing struct {
	Bid
	ProductTitle string
	Unit         string
	FarmerID     uint64
	FarmerName   string
	TraderName   string
}
