package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-platform/internal/audit"
	"marketplace-platform/internal/auth"
	"marketplace-platform/internal/buyers"
	"marketplace-platform/internal/catalog"
	"marketplace-platform/internal/checkout"
	"marketplace-platform/internal/config"
	"marketplace-platform/internal/discounts"
	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/inventory"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/limiter"
	"marketplace-platform/internal/money"
	"marketplace-platform/internal/notify"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"
	"marketplace-platform/internal/refunds"
	"marketplace-platform/internal/reporting"
	"marketplace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// apiFixture wires the whole API against shared in-memory stores, so requests
// exercise the same cross-package state the production wiring shares through
// Postgres.
type apiFixture struct {
	router   *gin.Engine
	mgr      *auth.Manager
	listings *catalog.MemoryRepo
	orderDB  *orders.MemoryRepo
	ledgerDB *ledger.MemoryRepo
	holdDB   *escrow.MemoryStore
	auditDB  *audit.MemoryRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mgr, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
	require.NoError(t, err)

	listings := catalog.NewMemoryRepo()
	orderDB := orders.NewMemoryRepo()
	ledgerDB := ledger.NewMemoryRepo()
	holdDB := escrow.NewMemoryStore(orderDB, ledgerDB)
	auditDB := audit.NewMemoryRepo()

	profile := buyers.NewMemoryRepo()
	profile.PutAddress(buyers.Address{
		ID: "addr-1", BuyerID: "buyer-1",
		Line1: "12 Allen Avenue", City: "Ikeja", State: "Lagos", Country: "NG",
		IsDefaultBilling: true,
	})

	inv := inventory.NewService(inventory.NewMemoryStore(listings))
	sink := notify.Noop{}
	log := logger.New("local")

	checkoutSvc := checkout.NewService(checkout.NewMemoryStore(listings, orderDB), listings, profile, inv, sink, log)
	orderSvc := orders.NewService(orderDB, inv)
	escrowSvc := escrow.NewService(holdDB, orderDB)
	refundSvc := refunds.NewService(refunds.NewMemoryStore(ledgerDB, orderDB, holdDB), orderDB, holdDB, ledgerDB, sink)
	ledgerSvc := ledger.NewService(ledgerDB)
	reportSvc := reporting.NewService(&reporting.MemoryRepo{Ledger: ledgerDB, Holds: holdDB})
	discountSvc := discounts.NewService(&discounts.MemoryRepo{Discounts: []discounts.CodeDiscount{
		{
			ID: "d1", Code: "SAVE10", PercentOff: 10,
			EffectiveFrom: time.Now().Add(-time.Hour),
			Status:        discounts.StatusActive,
		},
	}})
	auditSvc := audit.NewService(auditDB)

	h := Handlers{
		Auth:      mgr,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Escrow:    escrowSvc,
		Refunds:   refundSvc,
		Ledger:    ledgerSvc,
		Reports:   reportSvc,
		Discounts: discountSvc,
		Audit:     auditSvc,
		Limiter:   limiter.NewMemoryLimiter(),
		Gate:      &limiter.MemoryGate{},
	}

	r := gin.New()
	Register(r, auth.RequireAccessToken(mgr), h)

	return &apiFixture{
		router:   r,
		mgr:      mgr,
		listings: listings,
		orderDB:  orderDB,
		ledgerDB: ledgerDB,
		holdDB:   holdDB,
		auditDB:  auditDB,
	}
}

func (f *apiFixture) token(t *testing.T, userID, role string) string {
	t.Helper()
	pair, err := f.mgr.IssuePair(time.Now(), userID, role)
	require.NoError(t, err)
	return pair.AccessToken
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) seedListing(id, sellerID string, priceCents int64, qty int) {
	f.listings.Put(catalog.Listing{
		ID: id, SellerID: sellerID, Title: "listing " + id,
		PriceCents: priceCents, Currency: "NGN",
		Status:         catalog.ListingStatusApproved,
		SupplyCapacity: catalog.SupplyLimited,
		QuantityAvailable: qty,
	})
}

// TestMarketplaceFlow walks the full money path over HTTP: cart, checkout,
// payment hold, fulfillment, payout release on one order and a full refund on
// another, then verifies the seller's balances line up.
func TestMarketplaceFlow(t *testing.T) {
	f := newAPIFixture(t)
	f.seedListing("l1", "seller-1", 5000, 3)

	buyerTok := f.token(t, "buyer-1", rbac.RoleBuyer)
	sellerTok := f.token(t, "seller-1", rbac.RoleSeller)
	ctx := context.Background()

	// Order A: two units, paid out after delivery.
	w := f.do(t, http.MethodPost, "/v1/cart/items", buyerTok, gin.H{"listing_id": "l1", "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/v1/checkout", buyerTok, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	receiptA := decode[checkout.Receipt](t, w)
	require.Len(t, receiptA.Orders, 1)
	require.Equal(t, int64(10000), receiptA.TotalCents)
	orderA := receiptA.Orders[0].ID

	l, _, err := f.listings.GetListing(ctx, "l1")
	require.NoError(t, err)
	require.Equal(t, 1, l.QuantityAvailable)

	w = f.do(t, http.MethodPost, "/v1/orders/"+orderA+"/confirm-payment", sellerTok, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	// a second hold on the same order must be refused
	w = f.do(t, http.MethodPost, "/v1/orders/"+orderA+"/confirm-payment", sellerTok, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	for _, status := range []string{"processing", "shipped"} {
		w = f.do(t, http.MethodPost, "/v1/orders/"+orderA+"/status", sellerTok, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = f.do(t, http.MethodPost, "/v1/orders/"+orderA+"/confirm-delivery", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/v1/seller/escrow/balance?currency=NGN", sellerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(10000), decode[money.Money](t, w).AmountCents)

	w = f.do(t, http.MethodPost, "/v1/orders/"+orderA+"/release", sellerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Order B: one unit, fully refunded after delivery.
	w = f.do(t, http.MethodPost, "/v1/cart/items", buyerTok, gin.H{"listing_id": "l1", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/v1/checkout", buyerTok, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	orderB := decode[checkout.Receipt](t, w).Orders[0].ID

	w = f.do(t, http.MethodPost, "/v1/orders/"+orderB+"/confirm-payment", sellerTok, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	for _, status := range []string{"processing", "shipped"} {
		w = f.do(t, http.MethodPost, "/v1/orders/"+orderB+"/status", sellerTok, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code)
	}
	w = f.do(t, http.MethodPost, "/v1/orders/"+orderB+"/confirm-delivery", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/v1/orders/"+orderB+"/refunds", sellerTok, gin.H{"reason": "damaged in transit"})
	require.Equal(t, http.StatusCreated, w.Code)
	refundB := decode[refunds.Refund](t, w)
	require.Equal(t, refunds.StatusPending, refundB.Status)
	require.Equal(t, int64(5000), refundB.AmountCents)

	// only one refund flow per order at a time
	w = f.do(t, http.MethodPost, "/v1/orders/"+orderB+"/refunds", sellerTok, gin.H{"reason": "duplicate"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/v1/refunds/"+refundB.ID+"/complete", sellerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, refunds.StatusRefunded, decode[refunds.Refund](t, w).Status)

	// order B ends returned, its hold refunded, and the stock ledger shows
	// the payout credit from A against the realized debit from B
	w = f.do(t, http.MethodGet, "/v1/orders/"+orderB, buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, orders.StatusReturned, decode[orders.Order](t, w).Status)

	w = f.do(t, http.MethodGet, "/v1/seller/balance?currency=NGN", sellerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, int64(5000), decode[money.Money](t, w).AmountCents)

	w = f.do(t, http.MethodGet, "/v1/seller/finance/summary?currency=NGN", sellerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[reporting.FinanceSummary](t, w)
	require.Equal(t, int64(5000), sum.RealizedBalanceCents)
	require.Equal(t, int64(0), sum.EscrowBalanceCents)
	require.Equal(t, 0, sum.ActiveHolds)

	// release and refund decisions both left audit entries
	require.NotEmpty(t, f.auditDB.EventsForOrder(orderA))
	require.NotEmpty(t, f.auditDB.EventsForOrder(orderB))
}

func TestDiscountedCheckout(t *testing.T) {
	f := newAPIFixture(t)
	f.seedListing("l1", "seller-1", 5000, 3)
	buyerTok := f.token(t, "buyer-1", rbac.RoleBuyer)

	w := f.do(t, http.MethodPost, "/v1/cart/items", buyerTok, gin.H{"listing_id": "l1", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/v1/cart/discount", buyerTok, gin.H{"code": "save10"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/v1/cart/discount", buyerTok, gin.H{"code": "NOSUCH"})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodPost, "/v1/checkout", buyerTok, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	receipt := decode[checkout.Receipt](t, w)
	require.Equal(t, int64(5000), receipt.SubtotalCents)
	require.Equal(t, int64(500), receipt.DiscountCents)
	require.Equal(t, int64(4500), receipt.TotalCents)
	// the order itself stays at full price; the discount is cart-level
	require.Equal(t, int64(5000), receipt.Orders[0].AmountCents)
}

func TestAuthAndRoleGates(t *testing.T) {
	f := newAPIFixture(t)
	f.seedListing("l1", "seller-1", 5000, 3)

	// unauthenticated
	w := f.do(t, http.MethodGet, "/v1/cart", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// login issues a usable pair
	w = f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "buyer-1", "role": "buyer"})
	require.Equal(t, http.StatusOK, w.Code)
	tokens := decode[map[string]string](t, w)
	require.NotEmpty(t, tokens["access_token"])
	require.NotEmpty(t, tokens["refresh_token"])

	w = f.do(t, http.MethodGet, "/v1/cart", tokens["access_token"], nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"user_id": "x", "role": "superuser"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	// buyers cannot read seller dashboards, sellers cannot shop
	buyerTok := f.token(t, "buyer-1", rbac.RoleBuyer)
	sellerTok := f.token(t, "seller-1", rbac.RoleSeller)

	w = f.do(t, http.MethodGet, "/v1/seller/balance?currency=NGN", buyerTok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/v1/cart/items", sellerTok, gin.H{"listing_id": "l1", "quantity": 1})
	require.Equal(t, http.StatusForbidden, w.Code)

	// a stranger cannot act on someone else's order
	buyer2Tok := f.token(t, "buyer-2", rbac.RoleBuyer)
	w = f.do(t, http.MethodPost, "/v1/cart/items", buyerTok, gin.H{"listing_id": "l1", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = f.do(t, http.MethodPost, "/v1/checkout", buyerTok, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode[checkout.Receipt](t, w).Orders[0].ID

	w = f.do(t, http.MethodPost, "/v1/orders/"+orderID+"/cancel", buyer2Tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodGet, "/v1/orders/"+orderID, buyer2Tok, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCheckoutRequiresBillingAddress(t *testing.T) {
	f := newAPIFixture(t)
	f.seedListing("l1", "seller-1", 5000, 3)

	// buyer-2 has no default billing address on file
	tok := f.token(t, "buyer-2", rbac.RoleBuyer)
	w := f.do(t, http.MethodPost, "/v1/cart/items", tok, gin.H{"listing_id": "l1", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/v1/checkout", tok, gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
