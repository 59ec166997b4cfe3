package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"rinha-payment-gateway/internal/config"
	"rinha-payment-gateway/internal/domain"
)

// requestedAtLayout is the wire format for the downstream POST:
// millisecond precision, UTC, zulu suffix, no offset.
const requestedAtLayout = "2006-01-02T15:04:05.000Z"

// sendPayload is the body posted to a processor's /payments endpoint.
type sendPayload struct {
	CorrelationID string          `json:"correlationId"`
	Amount        decimal.Decimal `json:"amount"`
	RequestedAt   string          `json:"requestedAt"`
}

// healthPayload is the body returned by /payments/service-health.
type healthPayload struct {
	Failing         bool `json:"failing"`
	MinResponseTime int  `json:"minResponseTime"`
}

// SendOutcome classifies the result of one send attempt.
type SendOutcome int

const (
	// Failure covers any non-terminal result: transport error,
	// timeout, any status other than 2xx/422.
	SendFailure SendOutcome = iota
	// Success covers 2xx ("terminal success") and 422 ("terminal
	// rejected-but-acknowledged") — both must be committed.
	SendSuccess
)

// Client wraps the outbound HTTP calls to a single downstream processor.
// One Client is constructed per processor (default, fallback).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Send POSTs a payment to this processor with a deadline of
// minLatencyMs + 500ms, stamping RequestedAtMs on req as a side
// effect — the Dispatcher owns calling this immediately before the
// POST, not earlier, since the timestamp sent downstream is what the
// scoring oracle compares against.
func (c *Client) Send(ctx context.Context, req *domain.PaymentRequest, minLatencyMs int) SendOutcome {
	req.RequestedAtMs = time.Now().UTC().UnixMilli()

	payload := sendPayload{
		CorrelationID: req.CorrelationID,
		Amount:        req.Amount,
		RequestedAt:   time.UnixMilli(req.RequestedAtMs).UTC().Format(requestedAtLayout),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SendFailure
	}

	deadline := time.Duration(minLatencyMs)*time.Millisecond + config.SendExtraTimeout
	sendCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(sendCtx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return SendFailure
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SendFailure
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return SendSuccess
	}
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return SendSuccess
	}
	return SendFailure
}

// CheckHealth issues one GET /payments/service-health probe with the
// fixed 10s deadline.
func (c *Client) CheckHealth(ctx context.Context) (healthy bool, minLatencyMs int, err error) {
	probeCtx, cancel := context.WithTimeout(ctx, config.HealthCheckTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/payments/service-health", nil)
	if err != nil {
		return false, 0, fmt.Errorf("%w: build health request: %v", domain.ErrParse, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, 0, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, 0, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload healthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, 0, fmt.Errorf("%w: decode health response: %v", domain.ErrParse, err)
	}

	return !payload.Failing, payload.MinResponseTime, nil
}
