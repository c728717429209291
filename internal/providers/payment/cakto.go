package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const caktoBaseURL = "https://api.cakto.com.br"

// CaktoClient implements Provider against the Cakto subscriptions API.
type CaktoClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCaktoClient(apiKey string) *CaktoClient {
	return &CaktoClient{
		baseURL: caktoBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API host, used by tests.
func (c *CaktoClient) WithBaseURL(baseURL string) *CaktoClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type caktoSubscription struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Customer struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"customer"`
	Offer struct {
		ID string `json:"id"`
	} `json:"offer"`
	PaymentMethod string `json:"paymentMethod"`
	NextChargeAt  string `json:"nextChargeDate"`
}

type caktoPayment struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	SubscriptionID string `json:"subscription"`
	Amount         int64  `json:"amount"`
	Customer       struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"customer"`
	PaymentMethod string `json:"paymentMethod"`
}

func (c *CaktoClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var raw caktoSubscription
	if err := c.get(ctx, "/api/v1/subscriptions/"+id, &raw); err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:            raw.ID,
		Status:        mapCaktoSubscriptionStatus(raw.Status),
		PlanID:        raw.Offer.ID,
		PayerID:       raw.Customer.ID,
		PayerEmail:    raw.Customer.Email,
		PaymentMethod: raw.PaymentMethod,
	}
	if raw.NextChargeAt != "" {
		if next, err := time.Parse(time.RFC3339, raw.NextChargeAt); err == nil {
			sub.NextChargeAt = &next
		}
	}
	return sub, nil
}

func (c *CaktoClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var raw caktoPayment
	if err := c.get(ctx, "/api/v1/transactions/"+id, &raw); err != nil {
		return nil, err
	}

	return &Payment{
		ID:             raw.ID,
		Status:         mapCaktoPaymentStatus(raw.Status),
		SubscriptionID: raw.SubscriptionID,
		PayerID:        raw.Customer.ID,
		PayerEmail:     raw.Customer.Email,
		PaymentMethod:  raw.PaymentMethod,
		Amount:         raw.Amount,
		Currency:       "BRL",
	}, nil
}

func (c *CaktoClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Code: CodeUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeUnavailable, Message: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Code: CodeNotFound, Message: "resource not found"}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &Error{Code: CodeUnauthorized, Message: fmt.Sprintf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("status %d: %s", resp.StatusCode, truncate(body, 200))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Code: CodeUnavailable, Message: "invalid response body"}
	}
	return nil
}

func mapCaktoSubscriptionStatus(status string) string {
	switch status {
	case "active", "paid":
		return SubscriptionStatusActive
	case "past_due":
		return SubscriptionStatusPending
	case "canceled", "cancelled", "expired":
		return SubscriptionStatusCancelled
	default:
		return status
	}
}

func mapCaktoPaymentStatus(status string) string {
	switch status {
	case "paid", "approved":
		return PaymentStatusApproved
	case "refused", "refunded", "chargedback":
		return PaymentStatusRejected
	default:
		return PaymentStatusPending
	}
}
