package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(apiURL string) *Client {
	return &Client{
		APIURL:      apiURL,
		APIKey:      "test-key",
		IPNSecret:   "ipn-secret",
		CallbackURL: "https://shop.example.com/ipn",
		HTTPClient:  http.DefaultClient,
		Logger:      zap.NewNop().Sugar(),
	}
}

func TestCreateInvoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoice", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req invoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 9.99, req.PriceAmount)
		assert.Equal(t, "USD", req.PriceCurrency)
		assert.Equal(t, "W-ABC123-300825", req.OrderID)
		assert.Equal(t, "ETH", req.PayCurrency)
		assert.Equal(t, "https://shop.example.com/ipn", req.IPNCallbackURL)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":          "4522625843",
			"invoice_url": "https://nowpayments.io/payment/?iid=4522625843",
		})
	}))
	defer srv.Close()

	invoice, err := testClient(srv.URL).CreateInvoice(context.Background(), 9.99, "W-ABC123-300825", "ETH")
	require.NoError(t, err)

	assert.Equal(t, "4522625843", invoice.ID)
	assert.Equal(t, "https://nowpayments.io/payment/?iid=4522625843", invoice.InvoiceURL)
}

func TestCreateInvoiceDefaultsPayCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req invoiceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultPayCurrency, req.PayCurrency)

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "1", "invoice_url": "https://pay"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateInvoice(context.Background(), 5, "W-ABC123-300825", "")
	require.NoError(t, err)
}

func TestCreateInvoiceUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateInvoice(context.Background(), 5, "W-ABC123-300825", "BTC")
	assert.ErrorContains(t, err, "unexpected status code: 403")
}

func TestCreateInvoiceMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "1"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CreateInvoice(context.Background(), 5, "W-ABC123-300825", "BTC")
	assert.ErrorContains(t, err, "no invoice_url")
}

func TestValidateSignature(t *testing.T) {
	client := testClient("")
	body := []byte(`{"payment_status":"finished","order_id":"B-ABC123-300825"}`)

	mac := hmac.New(sha512.New, []byte("ipn-secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.ValidateSignature(body, signature))
	assert.False(t, client.ValidateSignature(body, "deadbeef"))
	assert.False(t, client.ValidateSignature([]byte(`{"tampered":true}`), signature))
	assert.False(t, client.ValidateSignature(body, ""))
}
