package main

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

	"github.com/iho/bankbook/internal/infrastructure/retry"
)

type settingsView struct {
	OverdraftFee  decimal.Decimal `json:"overdraftFee"`
	ManagementFee decimal.Decimal `json:"managementFee"`
}

type accountView struct {
	ID               int             `json:"id"`
	Nickname         string          `json:"nickname"`
	Balance          decimal.Decimal `json:"balance"`
	Settings         settingsView    `json:"settings"`
	TransactionCount int             `json:"transactionCount"`
}

type transactionView struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

type historyView struct {
	AccountID    int               `json:"accountId"`
	Transactions []transactionView `json:"transactions"`
}

type outcomeView struct {
	Result  string       `json:"result"`
	Account *accountView `json:"account"`
}

// apiError is a non-2xx answer from the server. Rejected transactions carry
// the account as it stands after the attempt.
type apiError struct {
	Status  int          `json:"-"`
	Err     string       `json:"error"`
	Message string       `json:"message"`
	Result  string       `json:"result"`
	Account *accountView `json:"account"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Err)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// client talks to the bankbook HTTP API.
type client struct {
	baseURL string
	http    *http.Client
	retrier *retry.Retrier
	checked bool
}

func newClient(baseURL string, timeout time.Duration, retrier *retry.Retrier) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		retrier: retrier,
	}
}

// ensureReachable polls /health with backoff once per process.
func (c *client) ensureReachable(ctx context.Context) error {
	if c.checked {
		return nil
	}

	err := c.retrier.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health check returned %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", c.baseURL, err)
	}

	c.checked = true
	return nil
}

// do sends body as JSON and decodes a 2xx answer into out when non-nil.
func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.ensureReachable(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Err == "" {
			apiErr.Err = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// asRejection returns the rejection carried by err, if any.
func asRejection(err error) (*apiError, bool) {
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Result != "" {
		return apiErr, true
	}
	return nil, false
}
