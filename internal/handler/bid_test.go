package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/yuvrajxx14mu/marketing-yard/internal/model"
	"github.com/yuvrajxx14mu/marketing-yard/internal/queue"
	"github.com/yuvrajxx14mu/marketing-yard/internal/repository"
)

// memBids is a scripted BidStore: Create enforces the same ownership and
// availability rules as the SQL repository, and Accept returns canned
// results so the handler's mapping can be asserted.
type memBids struct {
	mu       sync.Mutex
	nextID   uint64
	bids     map[uint64]model.BidListing
	products map[uint64]model.Product
}

func newMemBids() *memBids {
	return &memBids{
		bids:     make(map[uint64]model.BidListing),
		products: make(map[uint64]model.Product),
	}
}

func (s *memBids) addProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memBids) addBid(l model.BidListing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bids[l.ID] = l
}

func (s *memBids) Create(ctx context.Context, b model.Bid) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[b.ProductID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if p.FarmerID == b.TraderID {
		return 0, repository.ErrForbidden
	}
	if p.Status != model.ProductAvailable {
		return 0, repository.ErrConflict
	}
	s.nextID++
	b.ID = s.nextID
	b.Status = model.BidPending
	b.TotalValue = b.Amount * b.Quantity
	s.bids[b.ID] = model.BidListing{Bid: b, ProductTitle: p.Title, Unit: p.Unit, FarmerID: p.FarmerID}
	return b.ID, nil
}

func (s *memBids) ListByTrader(ctx context.Context, traderID uint64) ([]model.BidListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BidListing
	for _, l := range s.bids {
		if l.TraderID == traderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memBids) ListByFarmer(ctx context.Context, farmerID uint64) ([]model.BidListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.BidListing
	for _, l := range s.bids {
		if l.FarmerID == farmerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memBids) ListByProduct(ctx context.Context, productID, farmerID uint64) ([]model.BidListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if p.FarmerID != farmerID {
		return nil, repository.ErrForbidden
	}
	var out []model.BidListing
	for _, l := range s.bids {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memBids) Accept(ctx context.Context, bidID, farmerID uint64) (model.BidListing, model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.bids[bidID]
	if !ok {
		return model.BidListing{}, model.Transaction{}, sql.ErrNoRows
	}
	if l.FarmerID != farmerID {
		return model.BidListing{}, model.Transaction{}, repository.ErrForbidden
	}
	if l.Status != model.BidPending {
		return model.BidListing{}, model.Transaction{}, repository.ErrConflict
	}
	l.Status = model.BidAccepted
	s.bids[bidID] = l
	txn := model.Transaction{
		ID:          99,
		ProductID:   l.ProductID,
		FarmerID:    l.FarmerID,
		TraderID:    l.TraderID,
		Quantity:    l.Quantity,
		TotalAmount: l.TotalValue,
		Status:      model.TxPending,
	}
	return l, txn, nil
}

func (s *memBids) Reject(ctx context.Context, bidID, farmerID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.bids[bidID]
	if !ok {
		return sql.ErrNoRows
	}
	if l.FarmerID != farmerID {
		return repository.ErrForbidden
	}
	if l.Status != model.BidPending {
		return repository.ErrConflict
	}
	l.Status = model.BidRejected
	s.bids[bidID] = l
	return nil
}

func bidRequest(t *testing.T, h echo.HandlerFunc, method, body string, uid uint64, bidID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uid)
	if bidID != "" {
		c.SetParamNames("id")
		c.SetParamValues(bidID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	return rec
}

func availableProduct(id, farmerID uint64) model.Product {
	return model.Product{
		ID: id, Title: "Basmati Rice", Unit: "quintal",
		FarmerID: farmerID, Status: model.ProductAvailable,
	}
}

func TestPlaceBid(t *testing.T) {
	store := newMemBids()
	store.addProduct(availableProduct(10, 1))
	h := &BidHandler{Bids: store}

	rec := bidRequest(t, h.PlaceBid, http.MethodPost,
		`{"product_id":10,"amount":2500,"quantity":4}`, 2, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %d (%s), want 201", rec.Code, rec.Body.String())
	}
}

func TestPlaceBidValidation(t *testing.T) {
	store := newMemBids()
	store.addProduct(availableProduct(10, 1))
	sold := availableProduct(11, 1)
	sold.Status = model.ProductSold
	store.addProduct(sold)
	h := &BidHandler{Bids: store}

	cases := []struct {
		name string
		uid  uint64
		body string
		code int
	}{
		{"zero amount", 2, `{"product_id":10,"amount":0,"quantity":4}`, http.StatusBadRequest},
		{"own product", 1, `{"product_id":10,"amount":2500,"quantity":4}`, http.StatusForbidden},
		{"sold product", 2, `{"product_id":11,"amount":2500,"quantity":4}`, http.StatusConflict},
		{"unknown product", 2, `{"product_id":404,"amount":2500,"quantity":4}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := bidRequest(t, h.PlaceBid, http.MethodPost, tc.body, tc.uid, "")
			if rec.Code != tc.code {
				t.Fatalf("code = %d (%s), want %d", rec.Code, rec.Body.String(), tc.code)
			}
		})
	}
}

func TestAcceptBidPublishesEvent(t *testing.T) {
	store := newMemBids()
	store.addProduct(availableProduct(10, 1))
	store.addBid(model.BidListing{
		Bid: model.Bid{
			ID: 5, ProductID: 10, TraderID: 2,
			Amount: 2500, Quantity: 4, TotalValue: 10000, Status: model.BidPending,
		},
		ProductTitle: "Basmati Rice", Unit: "quintal",
		FarmerID: 1, FarmerName: "Ramesh", TraderName: "Suresh",
	})

	published := make(chan queue.BidAcceptedEvent, 1)
	h := &BidHandler{
		Bids: store,
		Publish: func(ctx context.Context, ev queue.BidAcceptedEvent) error {
			published <- ev
			return nil
		},
	}

	rec := bidRequest(t, h.AcceptBid, http.MethodPost, "", 1, "5")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d (%s), want 200", rec.Code, rec.Body.String())
	}

	select {
	case ev := <-published:
		if ev.BidID != 5 || ev.TxnID != 99 || ev.ProductTitle != "Basmati Rice" || ev.TotalValue != 10000 {
			t.Fatalf("unexpected event: %+v", ev)
		}
		if ev.EventID == "" || ev.AcceptedAt == "" {
			t.Fatalf("event missing id or timestamp: %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

func TestAcceptBidErrors(t *testing.T) {
	store := newMemBids()
	store.addProduct(availableProduct(10, 1))
	store.addBid(model.BidListing{
		Bid:      model.Bid{ID: 5, ProductID: 10, TraderID: 2, Status: model.BidRejected},
		FarmerID: 1,
	})
	h := &BidHandler{Bids: store}

	// Wrong farmer.
	if rec := bidRequest(t, h.AcceptBid, http.MethodPost, "", 7, "5"); rec.Code != http.StatusForbidden {
		t.Fatalf("wrong farmer code = %d, want 403", rec.Code)
	}
	// Already decided.
	if rec := bidRequest(t, h.AcceptBid, http.MethodPost, "", 1, "5"); rec.Code != http.StatusConflict {
		t.Fatalf("decided bid code = %d, want 409", rec.Code)
	}
	// Unknown bid.
	if rec := bidRequest(t, h.AcceptBid, http.MethodPost, "", 1, "404"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown bid code = %d, want 404", rec.Code)
	}
}

func TestRejectBid(t *testing.T) {
	store := newMemBids()
	store.addProduct(availableProduct(10, 1))
	store.addBid(model.BidListing{
		Bid:      model.Bid{ID: 5, ProductID: 10, TraderID: 2, Status: model.BidPending},
		FarmerID: 1,
	})
	h := &BidHandler{Bids: store}

	rec := bidRequest(t, h.RejectBid, http.MethodPost, "", 1, "5")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d (%s), want 200", rec.Code, rec.Body.String())
	}
	// A decided bid cannot be rejected again.
	if rec := bidRequest(t, h.RejectBid, http.MethodPost, "", 1, "5"); rec.Code != http.StatusConflict {
		t.Fatalf("second reject code = %d, want 409", rec.Code)
	}
}
