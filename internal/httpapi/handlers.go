package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"rinha-payment-gateway/internal/domain"
	"rinha-payment-gateway/internal/ledger"
	"rinha-payment-gateway/internal/processor"
	"rinha-payment-gateway/internal/queue"
)

// Handlers groups the dependencies the payment intake, summary, and
// health introspection endpoints need.
type Handlers struct {
	Queue      *queue.Queue
	Ledger     *ledger.Selector
	BackendID  string
	Processors map[domain.ProcessorKind]*processor.State
}

type paymentRequestBody struct {
	CorrelationID string          `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
}

// PostPayments handles POST /payments. It must not block on
// downstream availability — enqueue is the only synchronous step.
func (h *Handlers) PostPayments(c *gin.Context) {
	var body paymentRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	correlationID := strings.TrimSpace(body.CorrelationID)
	if correlationID == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if body.Amount.Sign() <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	h.Queue.Push(domain.PaymentRequest{
		CorrelationID: correlationID,
		Amount:        body.Amount,
	})

	c.Status(http.StatusAccepted)
}

// GetPaymentsSummary handles GET /payments-summary. It never returns
// an error status: a missing or unparsable range responds 200 with
// zeros.
func (h *Handlers) GetPaymentsSummary(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if strings.TrimSpace(fromStr) == "" || strings.TrimSpace(toStr) == "" {
		c.JSON(http.StatusOK, domain.ZeroSummary())
		return
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		c.JSON(http.StatusOK, domain.ZeroSummary())
		return
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		c.JSON(http.StatusOK, domain.ZeroSummary())
		return
	}

	fromMs := from.UTC().UnixMilli()
	toMs := to.UTC().UnixMilli()

	summary := h.Ledger.Summary(c.Request.Context(), fromMs, toMs)
	c.JSON(http.StatusOK, summary)
}

// GetHealth is a read-only introspection endpoint reporting each
// processor's current hint. It does not affect payment intake or
// summaries.
func (h *Handlers) GetHealth(c *gin.Context) {
	processors := make(map[string]processor.Snapshot, len(h.Processors))
	for kind, state := range h.Processors {
		processors[kind.String()] = state.Snapshot()
	}

	c.JSON(http.StatusOK, gin.H{
		"backendId":  h.BackendID,
		"processors": processors,
	})
}
