// Package queue defines message payloads exchanged over the message broker.
package queue

// BidAcceptedEvent is published when a farmer accepts a trader's bid.
// It carries enough information for downstream consumers to log, notify
// both parties, or feed analytics without querying the primary database.
type BidAcceptedEvent struct {
	EventID      string  `json:"event_id"`
	BidID        uint64  `json:"bid_id"`
	ProductID    uint64  `json:"product_id"`
	ProductTitle string  `json:"product_title"`
	FarmerID     uint64  `json:"farmer_id"`
	FarmerName   string  `json:"farmer_name"`
	TraderID     uint64  `json:"trader_id"`
	TraderName   string  `json:"trader_name"`
	Amount       float64 `json:"amount"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	TotalValue   float64 `json:"total_value"`
	TxnID        uint64  `json:"transaction_id"`
	AcceptedAt   string  `json:"accepted_at"`
}
