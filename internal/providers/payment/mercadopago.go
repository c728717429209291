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

const mercadoPagoBaseURL = "https://api.mercadopago.com"

// MercadoPagoClient implements Provider against the Mercado Pago preapproval
// and payments APIs.
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

func NewMercadoPagoClient(accessToken string) *MercadoPagoClient {
	return &MercadoPagoClient{
		baseURL:     mercadoPagoBaseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the API host, used by tests.
func (c *MercadoPagoClient) WithBaseURL(baseURL string) *MercadoPagoClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type mpPreapproval struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	PreapprovalPlan string `json:"preapproval_plan_id"`
	PayerID         int64  `json:"payer_id"`
	PayerEmail      string `json:"payer_email"`
	PaymentMethodID string `json:"payment_method_id"`
	NextPaymentDate string `json:"next_payment_date"`
}

type mpPayment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	PreapprovalID     string `json:"preapproval_id"`
	PaymentMethodID   string `json:"payment_method_id"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string `json:"currency_id"`
	Payer             struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"payer"`
}

func (c *MercadoPagoClient) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	var raw mpPreapproval
	if err := c.get(ctx, "/preapproval/"+id, &raw); err != nil {
		return nil, err
	}

	sub := &Subscription{
		ID:            raw.ID,
		Status:        mapMercadoPagoSubscriptionStatus(raw.Status),
		PlanID:        raw.PreapprovalPlan,
		PayerID:       fmt.Sprintf("%d", raw.PayerID),
		PayerEmail:    raw.PayerEmail,
		PaymentMethod: raw.PaymentMethodID,
	}
	if raw.NextPaymentDate != "" {
		if next, err := time.Parse(time.RFC3339, raw.NextPaymentDate); err == nil {
			sub.NextChargeAt = &next
		}
	}
	return sub, nil
}

func (c *MercadoPagoClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var raw mpPayment
	if err := c.get(ctx, "/v1/payments/"+id, &raw); err != nil {
		return nil, err
	}

	return &Payment{
		ID:             fmt.Sprintf("%d", raw.ID),
		Status:         mapMercadoPagoPaymentStatus(raw.Status),
		SubscriptionID: raw.PreapprovalID,
		PayerID:        raw.Payer.ID,
		PayerEmail:     raw.Payer.Email,
		PaymentMethod:  raw.PaymentMethodID,
		Amount:         int64(raw.TransactionAmount * 100),
		Currency:       raw.CurrencyID,
	}, nil
}

func (c *MercadoPagoClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

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

func mapMercadoPagoSubscriptionStatus(status string) string {
	switch status {
	case "authorized":
		return SubscriptionStatusAuthorized
	case "paused":
		return SubscriptionStatusPaused
	case "cancelled":
		return SubscriptionStatusCancelled
	case "pending":
		return SubscriptionStatusPending
	default:
		return status
	}
}

func mapMercadoPagoPaymentStatus(status string) string {
	switch status {
	case "approved", "authorized":
		return PaymentStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return PaymentStatusRejected
	default:
		return PaymentStatusPending
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
