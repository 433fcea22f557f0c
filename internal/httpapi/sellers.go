package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"marketplace-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Seller dashboard reads. All endpoints take ?currency= because balances are
// kept strictly per currency; there is no cross-currency aggregation.

func (h Handlers) SellerBalance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	m, err := h.Ledger.SellerBalance(c.Request.Context(), actor.UserID, c.Query("currency"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) SellerLedger(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.Ledger.PayoutHistory(c.Request.Context(), actor.UserID, c.Query("currency"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h Handlers) SellerEscrowBalance(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	m, err := h.Escrow.SellerEscrowBalance(c.Request.Context(), actor.UserID, c.Query("currency"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h Handlers) SellerEscrowHolds(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	holds, err := h.Escrow.SellerActiveHolds(c.Request.Context(), actor.UserID, c.Query("currency"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"holds": holds})
}

func (h Handlers) SellerFinanceSummary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	sum, err := h.Reports.FinanceSummary(c.Request.Context(), reporting.FinanceSummaryRequest{
		SellerID: actor.UserID,
		Currency: c.Query("currency"),
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "currency query parameter is required"})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
