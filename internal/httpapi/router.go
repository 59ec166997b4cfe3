package httpapi

import (
	"github.com/gin-gonic/gin"
)

// NewRouter wires the payment intake, summary, and health endpoints.
// Kept minimal (no gin.Default() middleware bloat) since the access
// log below already covers request logging.
func NewRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(accessLog())

	r.POST("/payments", h.PostPayments)
	r.GET("/payments-summary", h.GetPaymentsSummary)
	r.GET("/health", h.GetHealth)

	return r
}
