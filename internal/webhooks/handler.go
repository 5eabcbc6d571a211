package webhooks

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes webhook configuration and recent deliveries.
type Handler struct {
	d      *Dispatcher
	logger *zap.Logger
}

// NewHandler creates a new webhook Handler.
func NewHandler(d *Dispatcher, logger *zap.Logger) *Handler {
	return &Handler{d: d, logger: logger}
}

// Register registers the webhook routes on the given router group. Callers
// pass middleware that restricts access to operators.
func (h *Handler) Register(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	wh := rg.Group("/webhooks", mw...)
	{
		wh.GET("", h.ListSubscriptions)
		wh.GET("/deliveries", h.ListDeliveries)
	}
}

// ListSubscriptions handles GET /webhooks. Secrets are never returned.
func (h *Handler) ListSubscriptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"subscriptions": h.d.Subscriptions()})
}

// ListDeliveries handles GET /webhooks/deliveries.
func (h *Handler) ListDeliveries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"deliveries": h.d.Deliveries()})
}
