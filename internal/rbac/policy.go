package rbac

// Ownership checks for orders, refunds and holds are expressed once here
// instead of inline equality checks scattered per handler. Services call
// CanActOn before any write.

type Actor struct {
	UserID string
	Role   string
}

// Resource identifies the owning parties of a marketplace entity.
// For an order, BuyerID/SellerID come straight off the order row; a refund or
// hold inherits them from its originating order.
type Resource struct {
	BuyerID  string
	SellerID string
}

type Action string

const (
	ActionView            Action = "view"
	ActionCancel          Action = "cancel"
	ActionConfirmDelivery Action = "confirm_delivery"
	ActionUpdateStatus    Action = "update_status"
	ActionConfirmPayment  Action = "confirm_payment"
	ActionRefund          Action = "refund"
	ActionRequestReturn   Action = "request_return"
	ActionProcessReturn   Action = "process_return"
	ActionCompleteRefund  Action = "complete_refund"
	ActionReleasePayout   Action = "release_payout"
)

// buyerActions are permitted only to the order's buyer.
var buyerActions = map[Action]bool{
	ActionCancel:          true,
	ActionConfirmDelivery: true,
	ActionRequestReturn:   true,
}

// sellerActions are permitted only to the order's seller.
var sellerActions = map[Action]bool{
	ActionUpdateStatus:   true,
	ActionConfirmPayment: true,
	ActionRefund:         true,
	ActionProcessReturn:  true,
	ActionCompleteRefund: true,
	ActionReleasePayout:  true,
}

// CanActOn decides whether actor may perform action on res.
//
// Rules:
// - admin may do anything
// - support may only view
// - buyers/sellers may view their own resources and perform their side's actions
func CanActOn(actor Actor, res Resource, action Action) bool {
	if actor.UserID == "" || actor.Role == "" {
		return false
	}
	if IsAdmin(actor.Role) {
		return true
	}

	owner := actor.UserID == res.BuyerID || actor.UserID == res.SellerID

	if action == ActionView {
		if actor.Role == RoleSupport {
			return true
		}
		return owner
	}

	switch actor.Role {
	case RoleBuyer:
		return buyerActions[action] && actor.UserID == res.BuyerID
	case RoleSeller:
		return sellerActions[action] && actor.UserID == res.SellerID
	default:
		return false
	}
}
