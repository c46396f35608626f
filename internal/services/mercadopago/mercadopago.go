// Package mercadopago is a thin HTTP client for the two provider calls the
// backend needs: creating a checkout preference and fetching a payment by id
// when the webhook fires.
package mercadopago

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	HTTP        *http.Client
	AccessToken string
	BaseURL     string
	BackendURL  string
	FrontendURL string
}

func NewClient(accessToken, baseURL, backendURL, frontendURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	return &Client{
		HTTP:        &http.Client{Timeout: 15 * time.Second},
		AccessToken: accessToken,
		BaseURL:     baseURL,
		BackendURL:  backendURL,
		FrontendURL: frontendURL,
	}
}

type preferenceItem struct {
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Currency  string  `json:"currency_id"`
}

type preferenceRequest struct {
	Items             []preferenceItem `json:"items"`
	Payer             map[string]string `json:"payer"`
	ExternalReference string            `json:"external_reference"`
	NotificationURL   string            `json:"notification_url"`
	BackURLs          map[string]string `json:"back_urls"`
	AutoReturn        string            `json:"auto_return"`
	BinaryMode        bool              `json:"binary_mode"`
}

type Preference struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference builds a checkout for one hire. externalRef is the hire id;
// the provider echoes it back on the payment object.
func (c *Client) CreatePreference(externalRef, title string, priceCents int64, payerName, payerEmail string) (*Preference, error) {
	req := preferenceRequest{
		Items: []preferenceItem{{
			Title:     title,
			UnitPrice: float64(priceCents) / 100.0,
			Quantity:  1,
			Currency:  "ARS",
		}},
		Payer: map[string]string{
			"name":  payerName,
			"email": payerEmail,
		},
		ExternalReference: externalRef,
		NotificationURL:   c.BackendURL + "/api/payments/webhook",
		BackURLs: map[string]string{
			"success": c.FrontendURL + "/payment-success?id=" + externalRef,
			"failure": c.FrontendURL + "/payment-failed?id=" + externalRef,
		},
		AutoReturn: "approved",
		BinaryMode: true,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: marshal preference: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.BaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: create preference: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago: create preference: status %d: %s", resp.StatusCode, raw)
	}

	var pref Preference
	if err := json.Unmarshal(raw, &pref); err != nil {
		return nil, fmt.Errorf("mercadopago: parse preference: %w", err)
	}
	return &pref, nil
}

// Payment is the subset of the provider payment object the webhook path uses.
type Payment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"` // approved, rejected, in_process, ...
	ExternalReference string      `json:"external_reference"`
	PaymentTypeID     string      `json:"payment_type_id"`
	DateApproved      *time.Time  `json:"date_approved"`
	Raw               []byte      `json:"-"`
}

// GetPayment fetches the payment the webhook notified about. The webhook body
// is never trusted directly; this lookup against the authenticated API is the
// verification step.
func (c *Client) GetPayment(paymentID string) (*Payment, error) {
	httpReq, err := http.NewRequest(http.MethodGet, c.BaseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: get payment: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("mercadopago: payment %s not found", paymentID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago: get payment: status %d: %s", resp.StatusCode, raw)
	}

	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("mercadopago: parse payment: %w", err)
	}
	p.Raw = raw
	return &p, nil
}
