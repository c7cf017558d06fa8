package payments

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

	"github.com/velorahq/velora/internal/pkg/env"
)

const (
	defaultDodoAPIBaseURL = "https://test.dodopayments.com"
)

// Client is the slice of the payment provider API the billing surface needs.
// Webhook processing never calls it; it exists for checkout initiation only.
type Client interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
}

type CustomerInput struct {
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Customer struct {
	ID    string `json:"customer_id"`
	Email string `json:"email"`
}

type CheckoutSessionInput struct {
	CustomerID string            `json:"-"`
	ProductID  string            `json:"-"`
	Quantity   int               `json:"-"`
	ReturnURL  string            `json:"return_url,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type CheckoutSession struct {
	ID  string `json:"session_id"`
	URL string `json:"checkout_url"`
}

// DodoClient talks to the Dodo Payments REST API.
type DodoClient struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

// NewDodoClientFromEnv builds a client from environment configuration.
func NewDodoClientFromEnv() *DodoClient {
	return &DodoClient{
		APIKey:     strings.TrimSpace(env.GetEnv("DODO_PAYMENTS_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("DODO_PAYMENTS_API_BASE_URL", defaultDodoAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *DodoClient) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	var customer Customer
	if err := c.post(ctx, "/customers", in, &customer); err != nil {
		return nil, err
	}
	if customer.ID == "" {
		return nil, errors.New("provider returned no customer id")
	}
	return &customer, nil
}

func (c *DodoClient) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	body := map[string]interface{}{
		"customer": map[string]string{"customer_id": in.CustomerID},
		"product_cart": []map[string]interface{}{
			{"product_id": in.ProductID, "quantity": in.Quantity},
		},
	}
	if in.ReturnURL != "" {
		body["return_url"] = in.ReturnURL
	}
	if len(in.Metadata) > 0 {
		body["metadata"] = in.Metadata
	}

	var session CheckoutSession
	if err := c.post(ctx, "/checkouts", body, &session); err != nil {
		return nil, err
	}
	if session.ID == "" || session.URL == "" {
		return nil, errors.New("provider returned an incomplete checkout session")
	}
	return &session, nil
}

func (c *DodoClient) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	if c.APIKey == "" {
		return errors.New("DODO_PAYMENTS_API_KEY is not configured")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider %s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, out)
}
