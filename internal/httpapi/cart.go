package httpapi

import (
	"net/http"
	"time"

	"marketplace-platform/internal/checkout"
	"marketplace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ListingID string `json:"listing_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

func (h Handlers) AddCartItem(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "listing_id and a positive quantity are required"})
		return
	}

	item, err := h.Checkout.AddItem(c.Request.Context(), actor.UserID, req.ListingID, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h Handlers) RemoveCartItem(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.Checkout.RemoveItem(c.Request.Context(), actor.UserID, c.Param("item_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) GetCart(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	cart, err := h.Checkout.GetCart(c.Request.Context(), actor.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h Handlers) ClearCart(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.Checkout.ClearCart(c.Request.Context(), actor.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type applyDiscountRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyDiscount resolves a promotion code and attaches it to the buyer's cart.
// Currency-scoped codes are rejected against carts priced in another currency.
func (h Handlers) ApplyDiscount(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req applyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	ctx := c.Request.Context()
	d, err := h.Discounts.Resolve(ctx, req.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	if !d.InEffect(time.Now().UTC()) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "discount code is not currently in effect"})
		return
	}
	if d.Currency != "" {
		cart, err := h.Checkout.GetCart(ctx, actor.UserID)
		if err != nil {
			writeError(c, err)
			return
		}
		for _, item := range cart.Items {
			if item.Currency != d.Currency {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "discount code does not apply to this cart's currency"})
				return
			}
		}
	}

	applied := checkout.Discount{
		Code:           d.Code,
		PercentOff:     d.PercentOff,
		AmountOffCents: d.AmountOffCents,
		Active:         true,
		ExpiresAt:      d.EffectiveTo,
	}
	if err := h.Checkout.ApplyDiscount(ctx, actor.UserID, applied); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, applied)
}

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
}

// CheckoutCart converts the cart into orders. At most one checkout per buyer
// runs at a time; a second concurrent attempt gets a conflict instead of a
// duplicate set of orders.
func (h Handlers) CheckoutCart(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	ctx := c.Request.Context()
	if h.Gate != nil {
		acquired, err := h.Gate.Acquire(ctx, actor.UserID)
		if err != nil {
			// the gate is load protection; checkout atomicity does not depend on it
			logger.FromGin(c).Error("checkout gate unavailable", "error", err)
		} else if !acquired {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a checkout is already in progress"})
			return
		} else {
			defer h.Gate.Release(ctx, actor.UserID)
		}
	}

	receipt, err := h.Checkout.Checkout(ctx, actor.UserID, req.ShippingAddress)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}
