// Package backend implements the storefront REST API client. The API is a
// fixed external contract; this adapter only maps it onto domain types and
// typed errors.
package backend

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

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/port"
)

const (
	pathCartAdd       = "/api/cart/add"
	pathCreateIntent  = "/api/order/stripe/create-payment-intent"
	pathConfirmOrder  = "/api/order/stripe/confirm-payment"
	pathOrderPrefix   = "/api/order/"
	defaultTimeout    = 15 * time.Second
	maxErrorBodyBytes = 1 << 20
)

// Client talks to the storefront backend. Requests carry the session's
// bearer token when a TokenSource is configured, and time out rather than
// hang; the caller decides whether to retry.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  port.TokenSource
}

func NewClient(baseURL string, timeout time.Duration, tokens port.TokenSource) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

type cartAddRequest struct {
	Products []port.CartLine `json:"products"`
}

type cartAddResponse struct {
	CartID string `json:"cartId"`
}

func (c *Client) CreateCart(ctx context.Context, lines []port.CartLine) (string, error) {
	var resp cartAddResponse
	if err := c.post(ctx, pathCartAdd, cartAddRequest{Products: lines}, &resp); err != nil {
		return "", err
	}
	if resp.CartID == "" {
		return "", domain.ErrCartIDMissing
	}
	return resp.CartID, nil
}

type createIntentResponse struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
	Error        string `json:"error"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req port.CreateIntentRequest) (port.CreateIntentResponse, error) {
	var resp createIntentResponse
	if err := c.post(ctx, pathCreateIntent, req, &resp); err != nil {
		return port.CreateIntentResponse{}, err
	}
	if !resp.Success || resp.ClientSecret == "" {
		return port.CreateIntentResponse{}, &domain.BackendError{
			StatusCode: http.StatusOK,
			Message:    resp.Error,
		}
	}
	return port.CreateIntentResponse{
		ClientSecret: resp.ClientSecret,
		OrderID:      resp.OrderID,
	}, nil
}

type confirmOrderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (c *Client) ConfirmPayment(ctx context.Context, req port.ConfirmOrderRequest) error {
	var resp confirmOrderResponse
	if err := c.post(ctx, pathConfirmOrder, req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &domain.BackendError{StatusCode: http.StatusOK, Message: resp.Error}
	}
	return nil
}

type orderResponse struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

func (c *Client) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodGet, pathOrderPrefix+orderID, nil, &resp); err != nil {
		var backendErr *domain.BackendError
		if errors.As(err, &backendErr) && backendErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp.Order, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("session token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return &domain.TransportError{Op: method + " " + path, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &domain.BackendError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// errorMessage pulls the backend's error field out of a failure body, if
// there is one.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
