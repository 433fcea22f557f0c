package httpapi

import (
	"net/http"

	"marketplace-platform/internal/refunds"
	"marketplace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type refundPaymentRequest struct {
	AmountCents int64  `json:"amount_cents"`
	RefundType  string `json:"refund_type"`
	Reason      string `json:"reason"`
}

// RefundPayment is the seller's direct refund on a captured payment. An empty
// refund_type (or zero amount) means a full refund.
func (h Handlers) RefundPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req refundPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	refundType := refunds.Type(req.RefundType)
	switch refundType {
	case "":
		if req.AmountCents == 0 {
			refundType = refunds.TypeFull
		} else {
			refundType = refunds.TypePartial
		}
	case refunds.TypeFull, refunds.TypePartial, refunds.TypeStoreCredit:
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refund_type must be full, partial or store_credit"})
		return
	}

	r, err := h.Refunds.RefundPayment(c.Request.Context(), actor, c.Param("order_id"), req.AmountCents, refundType, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	h.auditRefund(c, actor.UserID, actor.Role, r.OrderID, r.ID, "refund initiated by seller")
	c.JSON(http.StatusCreated, r)
}

type initiateRefundRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// InitiateRefund is the buyer's refund request on a delivered order.
func (h Handlers) InitiateRefund(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req initiateRefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	r, err := h.Refunds.InitiateRefund(c.Request.Context(), actor, c.Param("order_id"), req.AmountCents, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

type requestReturnRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (h Handlers) RequestReturn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req requestReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "reason and description are required"})
		return
	}

	r, err := h.Refunds.RequestReturn(c.Request.Context(), actor, c.Param("order_id"), req.Reason, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

type processReturnRequest struct {
	Approve           *bool `json:"approve" binding:"required"`
	RestockPercentage int64 `json:"restock_percentage"`
}

// ProcessReturn records the seller's approve/reject decision on a return.
func (h Handlers) ProcessReturn(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req processReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "approve is required"})
		return
	}

	r, err := h.Refunds.ProcessReturn(c.Request.Context(), actor, c.Param("refund_id"), *req.Approve, req.RestockPercentage)
	if err != nil {
		writeError(c, err)
		return
	}
	decision := "return rejected"
	if *req.Approve {
		decision = "return approved"
	}
	h.auditRefund(c, actor.UserID, actor.Role, r.OrderID, r.ID, decision)
	c.JSON(http.StatusOK, r)
}

// CompleteRefund realizes the reversal and ends the flow.
func (h Handlers) CompleteRefund(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	r, err := h.Refunds.CompleteRefund(c.Request.Context(), actor, c.Param("refund_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.auditRefund(c, actor.UserID, actor.Role, r.OrderID, r.ID, "refund completed")
	c.JSON(http.StatusOK, r)
}

func (h Handlers) GetRefund(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	r, err := h.Refunds.Get(c.Request.Context(), actor, c.Param("refund_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h Handlers) auditRefund(c *gin.Context, userID, role, orderID, refundID, message string) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.LogRefundDecision(c.Request.Context(), userID, role, c.ClientIP(), orderID, refundID, message); err != nil {
		logger.FromGin(c).Error("audit append failed", "error", err)
	}
}
