package httpapi

import (
	"errors"
	"net/http"
	"time"

	"marketplace-platform/internal/apperr"
	"marketplace-platform/internal/audit"
	"marketplace-platform/internal/auth"
	"marketplace-platform/internal/checkout"
	"marketplace-platform/internal/discounts"
	"marketplace-platform/internal/escrow"
	"marketplace-platform/internal/ledger"
	"marketplace-platform/internal/limiter"
	"marketplace-platform/internal/orders"
	"marketplace-platform/internal/rbac"
	"marketplace-platform/internal/refunds"
	"marketplace-platform/internal/reporting"
	"marketplace-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers carries the service dependencies for all HTTP endpoints. Keep
// handlers thin: bind, call one service method, map the error, render.
// Ownership and state checks live in the services, not here.
type Handlers struct {
	Auth      *auth.Manager
	Checkout  *checkout.Service
	Orders    *orders.Service
	Escrow    *escrow.Service
	Refunds   *refunds.Service
	Ledger    *ledger.Service
	Reports   *reporting.Service
	Discounts *discounts.Service
	Audit     *audit.Service

	// Limiter and Gate are optional. When nil the endpoints they protect run
	// unthrottled; both are best-effort controls, not correctness guards.
	Limiter limiter.RateLimiter
	Gate    limiter.ConcurrencyGate
}

type loginRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// Login issues a token pair for an already-verified identity. Credential
// verification happens upstream (identity provider / account service); this
// process only mints and validates tokens.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth manager not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id and role are required"})
		return
	}
	if !rbac.IsKnownRole(req.Role) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Role)
	if err != nil {
		logger.FromGin(c).Error("token issue failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// RateLimit gates a route group with a fixed-window budget per caller,
// keyed by user id (or client IP before authentication). A limiter backend
// failure fails open: throttling is load protection, not access control.
func (h Handlers) RateLimit(name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Limiter == nil {
			c.Next()
			return
		}
		key, err := auth.UserID(c.Request.Context())
		if err != nil || key == "" {
			key = c.ClientIP()
		}
		allowed, err := h.Limiter.Allow(c.Request.Context(), name+":"+key, limit, window)
		if err != nil {
			logger.FromGin(c).Error("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// actorFrom builds the RBAC actor from the verified token identity.
func actorFrom(c *gin.Context) (rbac.Actor, bool) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return rbac.Actor{}, false
	}
	role, err := auth.Role(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return rbac.Actor{}, false
	}
	return rbac.Actor{UserID: uid, Role: role}, true
}

// writeError maps service errors onto HTTP statuses in one place. Client
// errors carry their message through; infrastructure failures are logged and
// masked.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidState):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrTransient):
		logger.FromGin(c).Error("transient failure", "error", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, retry"})
	default:
		logger.FromGin(c).Error("unhandled error", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
