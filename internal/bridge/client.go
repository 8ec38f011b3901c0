package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SelwynIsLoading/kiosk-payments/internal/pkg/circuit"
	"github.com/SelwynIsLoading/kiosk-payments/internal/pkg/retry"
)

// Client talks to the kiosk server over its public HTTP surface. The
// bridge sits behind a consumer uplink with no inbound connectivity, so
// everything is outbound polling.
//
// Cash updates are retried: a dropped update is money the customer
// inserted and the server never heard about. Poll requests are not
// retried; the next tick covers them.
type Client struct {
	baseURL string
	httpc   *http.Client
	retry   retry.Policy
	breaker *circuit.Breaker
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, retryPolicy retry.Policy, breaker *circuit.Breaker, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		retry:   retryPolicy,
		breaker: breaker,
		logger:  logger,
	}
}

type ActiveSession struct {
	OrderKey       string  `json:"orderKey"`
	TotalRequired  float64 `json:"totalRequired"`
	AmountInserted float64 `json:"amountInserted"`
	Remaining      float64 `json:"remaining"`
}

type activeSessionsResponse struct {
	Sessions []ActiveSession `json:"sessions"`
}

// ActiveSessions polls for payment sessions waiting on cash.
func (c *Client) ActiveSessions(ctx context.Context) ([]ActiveSession, error) {
	var resp activeSessionsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/cash/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

type UpdateResult struct {
	AmountInserted float64 `json:"amountInserted"`
	TotalRequired  float64 `json:"totalRequired"`
	Remaining      float64 `json:"remaining"`
	IsComplete     bool    `json:"isComplete"`
}

// SendCashUpdate reports one detected insertion, retrying through the
// configured backoff policy. A 4xx answer is not retried: the server has
// made up its mind (unknown order, session already closed).
func (c *Client) SendCashUpdate(ctx context.Context, orderKey string, amount decimal.Decimal) (UpdateResult, error) {
	body := map[string]any{
		"orderKey":    orderKey,
		"amountAdded": amount.InexactFloat64(),
	}

	var res UpdateResult
	var rejected *statusError
	err := retry.Do(ctx, c.retry, func() error {
		err := c.doJSON(ctx, http.MethodPost, "/cash/update", body, &res)
		var se *statusError
		if errors.As(err, &se) && se.code < 500 {
			rejected = se
			return nil
		}
		return err
	})
	if err == nil && rejected != nil {
		return res, rejected
	}
	return res, err
}

type PrintJob struct {
	JobID    string    `json:"jobId"`
	OrderKey string    `json:"orderKey"`
	Payload  []string  `json:"payload"`
	QueuedAt time.Time `json:"queuedAt"`
}

// NextPrintJob polls the print queue. A nil job with nil error means no
// work right now.
func (c *Client) NextPrintJob(ctx context.Context) (*PrintJob, error) {
	var job PrintJob
	found, err := c.doJSONMaybe(ctx, http.MethodGet, "/print/next", nil, &job)
	if err != nil || !found {
		return nil, err
	}
	return &job, nil
}

func (c *Client) ReportPrintComplete(ctx context.Context, jobID string) error {
	return c.doJSON(ctx, http.MethodPost, "/print/complete/"+jobID, nil, nil)
}

func (c *Client) ReportPrintFailed(ctx context.Context, jobID, message string) error {
	return c.doJSON(ctx, http.MethodPost, "/print/failed/"+jobID, map[string]any{"error": message}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	_, err := c.doJSONMaybe(ctx, method, path, body, out)
	return err
}

// doJSONMaybe performs one request through the circuit breaker. Returns
// found=false for a 204.
func (c *Client) doJSONMaybe(ctx context.Context, method, path string, body, out any) (bool, error) {
	if err := c.breaker.Allow(); err != nil {
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return false, fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.breaker.Failure()
		return false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		c.breaker.Success()
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.breaker.Success()
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return false, fmt.Errorf("decode %s response: %w", path, err)
			}
		}
		return true, nil
	case resp.StatusCode >= 500:
		c.breaker.Failure()
	default:
		// 4xx is the server answering fine; only transport-level trouble
		// should trip the breaker.
		c.breaker.Success()
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return false, &statusError{
		code: resp.StatusCode,
		msg:  fmt.Sprintf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg))),
	}
}

type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }
