package money

import "testing"

func TestValidateCurrency(t *testing.T) {
	if err := ValidateCurrency("NGN"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := ValidateCurrency("usd"); err == nil {
		t.Fatalf("expected error for lowercase code")
	}
	if err := ValidateCurrency(""); err == nil {
		t.Fatalf("expected error for empty code")
	}
	if err := ValidateCurrency("USDT"); err == nil {
		t.Fatalf("expected error for 4-letter code")
	}
}

func TestMulQty(t *testing.T) {
	m := Money{AmountCents: 5000, Currency: "NGN"}

	got, err := m.MulQty(2)
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if got.AmountCents != 10000 {
		t.Fatalf("expected 10000, got %d", got.AmountCents)
	}

	if _, err := m.MulQty(0); err == nil {
		t.Fatalf("expected error for zero quantity")
	}
	if _, err := m.MulQty(-1); err == nil {
		t.Fatalf("expected error for negative quantity")
	}
}

func TestAddRejectsCurrencyMismatch(t *testing.T) {
	a := Money{AmountCents: 100, Currency: "NGN"}
	b := Money{AmountCents: 100, Currency: "USD"}
	if _, err := a.Add(b); err == nil {
		t.Fatalf("expected currency mismatch error")
	}
}

func TestPercentOff(t *testing.T) {
	// floor division
	if got := PercentOff(10000, 20); got != 2000 {
		t.Fatalf("expected 2000, got %d", got)
	}
	if got := PercentOff(999, 10); got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
	if got := PercentOff(10000, 0); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := PercentOff(10000, 150); got != 10000 {
		t.Fatalf("expected cap at full amount, got %d", got)
	}
}

func TestRoundPercent(t *testing.T) {
	// half-up rounding
	if got := RoundPercent(10000, 80); got != 8000 {
		t.Fatalf("expected 8000, got %d", got)
	}
	if got := RoundPercent(999, 50); got != 500 {
		t.Fatalf("expected 500 (499.5 rounds up), got %d", got)
	}
	if got := RoundPercent(101, 33); got != 33 {
		t.Fatalf("expected 33 (33.33 rounds down), got %d", got)
	}
}
