package checkout

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/buyers"
	"marketplace-platform/internal/catalog"
	"marketplace-platform/internal/inventory"
	"marketplace-platform/internal/notify"
	"marketplace-platform/internal/orders"

	"github.com/google/uuid"
)

// Store is the transactional persistence contract for carts and checkout.
type Store interface {
	AddItem(ctx context.Context, item CartItem) error

	// RemoveItem deletes one item from the buyer's cart. ok=false when the
	// item does not exist or belongs to someone else.
	RemoveItem(ctx context.Context, buyerID, itemID string) (CartItem, bool, error)

	GetCart(ctx context.Context, buyerID string) (Cart, error)

	SetDiscount(ctx context.Context, buyerID string, d Discount) error

	// ClearCart removes every item and detaches the discount, returning what
	// was removed so reservations can be released.
	ClearCart(ctx context.Context, buyerID string) ([]CartItem, error)

	// Finalize inserts all orders, decrements stock for the flagged lines and
	// clears the cart in ONE transaction. Any failure leaves no orders, no
	// stock change and the cart intact.
	Finalize(ctx context.Context, buyerID string, lines []Line) error
}

// Line pairs an order to create with its stock handling.
type Line struct {
	Order          orders.Order
	CartItemID     string
	DecrementStock bool
}

// Reservations is the slice of the inventory service the cart flow drives.
type Reservations interface {
	Reserve(ctx context.Context, listingID string, quantity int, ownerRef string) (inventory.Reservation, error)
	ReleaseOwner(ctx context.Context, ownerRef string) error
	ConfirmOwner(ctx context.Context, ownerRef string) error
}

type Service struct {
	store        Store
	listings     catalog.Lookup
	profile      buyers.Profile
	reservations Reservations
	sink         notify.Sink
	log          *slog.Logger
	clock        func() time.Time
}

func NewService(store Store, listings catalog.Lookup, profile buyers.Profile, reservations Reservations, sink notify.Sink, log *slog.Logger) *Service {
	return &Service{
		store:        store,
		listings:     listings,
		profile:      profile,
		reservations: reservations,
		sink:         sink,
		log:          log,
		clock:        time.Now,
	}
}

// AddItem freezes the listing's current price into the cart and reserves
// stock for quantity-limited listings.
func (s *Service) AddItem(ctx context.Context, buyerID, listingID string, quantity int) (CartItem, error) {
	if quantity <= 0 {
		return CartItem{}, apperr.InvalidStatef("quantity must be positive, got %d", quantity)
	}
	l, ok, err := s.listings.GetListing(ctx, listingID)
	if err != nil {
		return CartItem{}, err
	}
	if !ok {
		return CartItem{}, apperr.NotFoundf("listing %s", listingID)
	}
	if !l.Sellable() {
		return CartItem{}, apperr.InvalidStatef("listing %s is not available for purchase", listingID)
	}

	item := CartItem{
		ID:             uuid.NewString(),
		BuyerID:        buyerID,
		ListingID:      listingID,
		SellerID:       l.SellerID,
		Quantity:       quantity,
		UnitPriceCents: l.PriceCents,
		Currency:       l.Currency,
		CreatedAt:      s.clock().UTC(),
	}

	if l.SupplyCapacity == catalog.SupplyLimited {
		if _, err := s.reservations.Reserve(ctx, listingID, quantity, item.ID); err != nil {
			return CartItem{}, err
		}
	}
	if err := s.store.AddItem(ctx, item); err != nil {
		if relErr := s.reservations.ReleaseOwner(ctx, item.ID); relErr != nil {
			s.log.Error("release reservation after cart insert failure", "cart_item_id", item.ID, "error", relErr)
		}
		return CartItem{}, err
	}

	s.sink.CartItemAdded(ctx, notify.CartEvent{BuyerID: buyerID, ListingID: listingID, Quantity: quantity})
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, buyerID, itemID string) error {
	item, ok, err := s.store.RemoveItem(ctx, buyerID, itemID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFoundf("cart item %s", itemID)
	}
	if err := s.reservations.ReleaseOwner(ctx, itemID); err != nil {
		s.log.Error("release reservation on cart remove", "cart_item_id", itemID, "error", err)
	}
	s.sink.CartItemRemoved(ctx, notify.CartEvent{BuyerID: buyerID, ListingID: item.ListingID, Quantity: item.Quantity})
	return nil
}

func (s *Service) GetCart(ctx context.Context, buyerID string) (Cart, error) {
	return s.store.GetCart(ctx, buyerID)
}

func (s *Service) ApplyDiscount(ctx context.Context, buyerID string, d Discount) error {
	if !d.Usable(s.clock().UTC()) {
		return apperr.InvalidStatef("discount %s is inactive or expired", d.Code)
	}
	if d.PercentOff < 0 || d.PercentOff > 100 || d.AmountOffCents < 0 {
		return apperr.InvalidStatef("discount %s has invalid terms", d.Code)
	}
	return s.store.SetDiscount(ctx, buyerID, d)
}

func (s *Service) ClearCart(ctx context.Context, buyerID string) error {
	removed, err := s.store.ClearCart(ctx, buyerID)
	if err != nil {
		return err
	}
	for _, item := range removed {
		if err := s.reservations.ReleaseOwner(ctx, item.ID); err != nil {
			s.log.Error("release reservation on cart clear", "cart_item_id", item.ID, "error", err)
		}
	}
	s.sink.CartCleared(ctx, buyerID)
	return nil
}

// Checkout converts the buyer's cart into one order per cart item, decrements
// stock for quantity-limited listings and clears the cart, all atomically.
// Per-order amounts are the full frozen line price; the discount is reported
// at the receipt level only.
func (s *Service) Checkout(ctx context.Context, buyerID, shippingAddress string) (Receipt, error) {
	addr, hasAddr, err := s.profile.GetDefaultBillingAddress(ctx, buyerID)
	if err != nil {
		return Receipt{}, err
	}
	if !hasAddr {
		return Receipt{}, apperr.InvalidStatef("buyer %s has no default billing address", buyerID)
	}
	if shippingAddress == "" {
		shippingAddress = formatAddress(addr)
	}

	cart, err := s.store.GetCart(ctx, buyerID)
	if err != nil {
		return Receipt{}, err
	}
	if len(cart.Items) == 0 {
		return Receipt{}, apperr.InvalidStatef("cart is empty")
	}

	currency := cart.Items[0].Currency
	now := s.clock().UTC()
	lines := make([]Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		if item.Currency != currency {
			return Receipt{}, apperr.InvalidStatef("cart mixes currencies %s and %s", currency, item.Currency)
		}
		l, ok, err := s.listings.GetListing(ctx, item.ListingID)
		if err != nil {
			return Receipt{}, err
		}
		if !ok {
			return Receipt{}, apperr.NotFoundf("listing %s", item.ListingID)
		}
		if !l.Sellable() {
			return Receipt{}, apperr.InvalidStatef("listing %s is no longer available for purchase", item.ListingID)
		}

		lines = append(lines, Line{
			Order: orders.Order{
				ID:              uuid.NewString(),
				BuyerID:         buyerID,
				SellerID:        item.SellerID,
				ListingID:       item.ListingID,
				Quantity:        item.Quantity,
				AmountCents:     item.LineTotal(),
				Currency:        currency,
				Status:          orders.StatusPending,
				DeliveryStatus:  orders.DeliveryNotShipped,
				PayoutStatus:    orders.PayoutInEscrow,
				ShippingAddress: shippingAddress,
				CreatedAt:       now,
				UpdatedAt:       now,
			},
			CartItemID:     item.ID,
			DecrementStock: l.SupplyCapacity == catalog.SupplyLimited,
		})
	}

	subtotal := cart.SubtotalCents()
	var discountCents int64
	if cart.Discount != nil {
		if !cart.Discount.Usable(now) {
			return Receipt{}, apperr.InvalidStatef("discount %s is inactive or expired", cart.Discount.Code)
		}
		discountCents = cart.Discount.ReductionCents(subtotal)
	}
	total := subtotal - discountCents
	if total < 0 {
		total = 0
	}

	if err := s.store.Finalize(ctx, buyerID, lines); err != nil {
		return Receipt{}, err
	}

	os := make([]orders.Order, len(lines))
	orderIDs := make([]string, len(lines))
	for i, ln := range lines {
		os[i] = ln.Order
		orderIDs[i] = ln.Order.ID
		// the order now owns the stock; confirmed reservations drop out of
		// the reserved counter
		if err := s.reservations.ConfirmOwner(ctx, ln.CartItemID); err != nil {
			s.log.Error("confirm reservation after checkout", "cart_item_id", ln.CartItemID, "error", err)
		}
	}

	s.sink.OrdersPlaced(ctx, notify.OrdersPlacedEvent{
		BuyerID:    buyerID,
		OrderIDs:   orderIDs,
		TotalCents: total,
		Currency:   currency,
	})
	s.sink.CartCleared(ctx, buyerID)

	return Receipt{
		Orders:        os,
		SubtotalCents: subtotal,
		DiscountCents: discountCents,
		TotalCents:    total,
		Currency:      currency,
	}, nil
}

func formatAddress(a buyers.Address) string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City, a.State, a.Country)
	return strings.Join(parts, ", ")
}
