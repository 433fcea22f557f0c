package httpapi

import (
	"net/http"
	"time"

	"marketplace-platform/internal/rbac"

	"github.com/gin-gonic/gin"
)

// Register wires all routes onto the engine. Role gates here are coarse route
// grouping; per-resource ownership is enforced by the services via CanActOn.
func Register(r *gin.Engine, authMW gin.HandlerFunc, h Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/v1/auth/login", h.Login)

	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		cart := v1.Group("/cart")
		cart.Use(rbac.RequireAnyRole(rbac.RoleBuyer))
		{
			cart.GET("", h.GetCart)
			cart.DELETE("", h.ClearCart)
			cart.POST("/items", h.AddCartItem)
			cart.DELETE("/items/:item_id", h.RemoveCartItem)
			cart.POST("/discount", h.ApplyDiscount)
		}

		v1.POST("/checkout",
			rbac.RequireAnyRole(rbac.RoleBuyer),
			h.RateLimit("checkout", 5, time.Minute),
			h.CheckoutCart,
		)

		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.GET("", h.ListOrders)
			ordersGroup.GET("/:order_id", h.GetOrder)
			ordersGroup.GET("/:order_id/refunds", h.ListOrderRefunds)

			buyer := ordersGroup.Group("")
			buyer.Use(rbac.RequireAnyRole(rbac.RoleBuyer))
			{
				buyer.POST("/:order_id/confirm-delivery", h.ConfirmDelivery)
				buyer.POST("/:order_id/cancel", h.CancelOrder)
				buyer.POST("/:order_id/refund-requests", h.InitiateRefund)
				buyer.POST("/:order_id/returns", h.RequestReturn)
			}

			seller := ordersGroup.Group("")
			seller.Use(rbac.RequireAnyRole(rbac.RoleSeller))
			{
				seller.POST("/:order_id/status", h.UpdateOrderStatus)
				seller.POST("/:order_id/confirm-payment", h.ConfirmPayment)
				seller.POST("/:order_id/release", h.ReleasePayout)
				seller.POST("/:order_id/refunds", h.RefundPayment)
			}
		}

		refundsGroup := v1.Group("/refunds")
		{
			refundsGroup.GET("/:refund_id", h.GetRefund)
			refundsGroup.POST("/:refund_id/process", rbac.RequireAnyRole(rbac.RoleSeller), h.ProcessReturn)
			refundsGroup.POST("/:refund_id/complete", rbac.RequireAnyRole(rbac.RoleSeller), h.CompleteRefund)
		}

		sellerDash := v1.Group("/seller")
		sellerDash.Use(rbac.RequireAnyRole(rbac.RoleSeller))
		{
			sellerDash.GET("/balance", h.SellerBalance)
			sellerDash.GET("/ledger", h.SellerLedger)
			sellerDash.GET("/escrow/balance", h.SellerEscrowBalance)
			sellerDash.GET("/escrow/holds", h.SellerEscrowHolds)
			sellerDash.GET("/finance/summary", h.SellerFinanceSummary)
		}
	}
}
