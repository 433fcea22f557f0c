package rbac

import "testing"

func TestCanActOn_BuyerOwnership(t *testing.T) {
	res := Resource{BuyerID: "b1", SellerID: "s1"}

	if !CanActOn(Actor{UserID: "b1", Role: RoleBuyer}, res, ActionCancel) {
		t.Fatalf("buyer should cancel own order")
	}
	if CanActOn(Actor{UserID: "b2", Role: RoleBuyer}, res, ActionCancel) {
		t.Fatalf("other buyer must not cancel")
	}
	if CanActOn(Actor{UserID: "b1", Role: RoleBuyer}, res, ActionRefund) {
		t.Fatalf("buyer must not perform seller-side refund")
	}
}

func TestCanActOn_SellerOwnership(t *testing.T) {
	res := Resource{BuyerID: "b1", SellerID: "s1"}

	if !CanActOn(Actor{UserID: "s1", Role: RoleSeller}, res, ActionRefund) {
		t.Fatalf("seller should refund own order")
	}
	if CanActOn(Actor{UserID: "s2", Role: RoleSeller}, res, ActionRefund) {
		t.Fatalf("other seller must not refund")
	}
	if CanActOn(Actor{UserID: "s1", Role: RoleSeller}, res, ActionRequestReturn) {
		t.Fatalf("seller must not perform buyer-side return request")
	}
}

func TestCanActOn_AdminAndSupport(t *testing.T) {
	res := Resource{BuyerID: "b1", SellerID: "s1"}

	if !CanActOn(Actor{UserID: "a1", Role: RoleAdmin}, res, ActionRefund) {
		t.Fatalf("admin bypasses ownership")
	}
	if !CanActOn(Actor{UserID: "sup", Role: RoleSupport}, res, ActionView) {
		t.Fatalf("support may view")
	}
	if CanActOn(Actor{UserID: "sup", Role: RoleSupport}, res, ActionCancel) {
		t.Fatalf("support must not mutate")
	}
}

func TestCanActOn_View(t *testing.T) {
	res := Resource{BuyerID: "b1", SellerID: "s1"}

	if !CanActOn(Actor{UserID: "b1", Role: RoleBuyer}, res, ActionView) {
		t.Fatalf("buyer may view own order")
	}
	if !CanActOn(Actor{UserID: "s1", Role: RoleSeller}, res, ActionView) {
		t.Fatalf("seller may view own order")
	}
	if CanActOn(Actor{UserID: "x", Role: RoleBuyer}, res, ActionView) {
		t.Fatalf("stranger must not view")
	}
	if CanActOn(Actor{}, res, ActionView) {
		t.Fatalf("empty actor must be denied")
	}
}
