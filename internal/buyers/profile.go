package buyers

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

// Checkout consumes buyer profile data through this narrow interface. Account
// management (registration, verification, address CRUD) lives outside the
// money path.

type Address struct {
	ID      string `json:"id" db:"id"`
	BuyerID string `json:"buyer_id" db:"buyer_id"`
	Line1   string `json:"line1" db:"line1"`
	Line2   string `json:"line2,omitempty" db:"line2"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
	Country string `json:"country" db:"country"`

	IsDefaultBilling bool `json:"is_default_billing" db:"is_default_billing"`
}

type Account struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Profile interface {
	GetDefaultBillingAddress(ctx context.Context, buyerID string) (Address, bool, error)
	GetAccountDetails(ctx context.Context, buyerID string) (Account, bool, error)
}

type PostgresRepo struct {
	DB *sql.DB
}

func (r *PostgresRepo) GetDefaultBillingAddress(ctx context.Context, buyerID string) (Address, bool, error) {
	const q = `
SELECT id, buyer_id, line1, COALESCE(line2, ''), city, state, country, is_default_billing
FROM buyer_addresses
WHERE buyer_id = $1 AND is_default_billing = TRUE
LIMIT 1
`
	var a Address
	err := r.DB.QueryRowContext(ctx, q, buyerID).Scan(
		&a.ID,
		&a.BuyerID,
		&a.Line1,
		&a.Line2,
		&a.City,
		&a.State,
		&a.Country,
		&a.IsDefaultBilling,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Address{}, false, nil
		}
		return Address{}, false, err
	}
	return a, true, nil
}

func (r *PostgresRepo) GetAccountDetails(ctx context.Context, buyerID string) (Account, bool, error) {
	const q = `
SELECT id, email, name, created_at
FROM buyers
WHERE id = $1
`
	var a Account
	err := r.DB.QueryRowContext(ctx, q, buyerID).Scan(&a.ID, &a.Email, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, false, nil
		}
		return Account{}, false, err
	}
	return a, true, nil
}

// MemoryRepo backs tests.
type MemoryRepo struct {
	mu        sync.Mutex
	addresses map[string]Address
	accounts  map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		addresses: make(map[string]Address),
		accounts:  make(map[string]Account),
	}
}

func (r *MemoryRepo) PutAddress(a Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addresses[a.BuyerID] = a
}

func (r *MemoryRepo) PutAccount(a Account) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.ID] = a
}

func (r *MemoryRepo) GetDefaultBillingAddress(ctx context.Context, buyerID string) (Address, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.addresses[buyerID]
	return a, ok && a.IsDefaultBilling, nil
}

func (r *MemoryRepo) GetAccountDetails(ctx context.Context, buyerID string) (Account, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[buyerID]
	return a, ok, nil
}
