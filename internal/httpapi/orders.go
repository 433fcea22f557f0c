package httpapi

import (
	"net/http"
	"strconv"

	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"
	"marketplace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ListOrders returns the caller's side of the marketplace: sellers see orders
// against their listings, everyone else sees their purchases.
func (h Handlers) ListOrders(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		list []orders.Order
		err  error
	)
	if actor.Role == rbac.RoleSeller {
		list, err = h.Orders.ListForSeller(c.Request.Context(), actor.UserID, limit)
	} else {
		list, err = h.Orders.ListForBuyer(c.Request.Context(), actor.UserID, limit)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h Handlers) GetOrder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	o, err := h.Orders.Get(c.Request.Context(), actor, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h Handlers) UpdateOrderStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	o, err := h.Orders.SellerUpdateStatus(c.Request.Context(), actor, c.Param("order_id"), orders.Status(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) ConfirmDelivery(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	o, err := h.Orders.BuyerConfirmDelivery(c.Request.Context(), actor, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) CancelOrder(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	o, err := h.Orders.BuyerCancel(c.Request.Context(), actor, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ConfirmPayment places the order's funds in escrow.
func (h Handlers) ConfirmPayment(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	hold, err := h.Escrow.OpenHold(c.Request.Context(), actor, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hold)
}

// ReleasePayout moves the held funds to the seller's realized balance.
func (h Handlers) ReleasePayout(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	orderID := c.Param("order_id")
	hold, err := h.Escrow.Release(c.Request.Context(), actor, orderID)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.Audit != nil {
		if err := h.Audit.LogEscrowRelease(c.Request.Context(), actor.UserID, actor.Role, c.ClientIP(), orderID, hold.ID, "payout released"); err != nil {
			logger.FromGin(c).Error("audit append failed", "error", err)
		}
	}
	c.JSON(http.StatusOK, hold)
}

func (h Handlers) ListOrderRefunds(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	list, err := h.Refunds.ListForOrder(c.Request.Context(), actor, c.Param("order_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": list})
}
