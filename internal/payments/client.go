package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vaultshop/vault-shop/config"
	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.nowpayments.io"

const DefaultPayCurrency = "BTC"

// Client talks to the NOWPayments invoice API and verifies its IPN callbacks.
type Client struct {
	APIURL      string
	APIKey      string
	IPNSecret   string
	CallbackURL string
	HTTPClient  *http.Client
	Logger      *zap.SugaredLogger
}

func NewClient(cfg *config.Config, logger *zap.SugaredLogger) *Client {
	apiURL := cfg.PaymentsAPIURL
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		APIURL:      apiURL,
		APIKey:      cfg.PaymentsAPIKey,
		IPNSecret:   cfg.IPNSecret,
		CallbackURL: strings.Replace(cfg.WebhookURL, "/bot-webhook", "/ipn", 1),
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
		Logger:      logger,
	}
}

type invoiceRequest struct {
	PriceAmount    float64 `json:"price_amount"`
	PriceCurrency  string  `json:"price_currency"`
	OrderID        string  `json:"order_id"`
	PayCurrency    string  `json:"pay_currency"`
	IPNCallbackURL string  `json:"ipn_callback_url"`
}

type Invoice struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoice_url"`
}

// CreateInvoice asks the processor for a hosted payment page. Prices are USD;
// payCurrency picks the coin the buyer pays with. A single best-effort attempt,
// no retries.
func (c *Client) CreateInvoice(ctx context.Context, amount float64, orderID string, payCurrency string) (*Invoice, error) {
	if payCurrency == "" {
		payCurrency = DefaultPayCurrency
	}

	body, err := json.Marshal(invoiceRequest{
		PriceAmount:    amount,
		PriceCurrency:  "USD",
		OrderID:        orderID,
		PayCurrency:    payCurrency,
		IPNCallbackURL: c.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/v1/invoice", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build invoice request: %w", err)
	}
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send invoice request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var invoice Invoice
	if err := json.NewDecoder(resp.Body).Decode(&invoice); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	if invoice.InvoiceURL == "" {
		return nil, fmt.Errorf("invoice response has no invoice_url")
	}

	c.Logger.Infow("created invoice", "order_id", orderID, "pay_currency", payCurrency)

	return &invoice, nil
}

// ValidateSignature checks the hex HMAC-SHA512 the processor sends over the
// raw IPN body. hmac.Equal keeps the comparison constant-time.
func (c *Client) ValidateSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.IPNSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
