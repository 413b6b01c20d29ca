package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/vaultshop/vault-shop/config"
	"github.com/vaultshop/vault-shop/internal/db"
	"github.com/vaultshop/vault-shop/internal/orderid"
	"github.com/vaultshop/vault-shop/internal/payments"
	"github.com/vaultshop/vault-shop/internal/redisx"
	"github.com/vaultshop/vault-shop/models"
	"go.uber.org/zap"
)

const recentOrdersLimit = 50

// Processor is the payment processor as the web handlers see it.
type Processor interface {
	CreateInvoice(ctx context.Context, amount float64, orderID string, payCurrency string) (*payments.Invoice, error)
	ValidateSignature(body []byte, signature string) bool
}

// Notifier delivers the operator relay and the buyer delivery prompt;
// implemented by the bot.
type Notifier interface {
	NotifyOperator(orderID string, method string, details string) error
	SendDeliveryPrompt(buyerID string, orderID string) error
}

// Dispatcher processes webhook-delivered Telegram updates.
type Dispatcher interface {
	HandleUpdate(ctx context.Context, update *tgbotapi.Update)
}

type Handler struct {
	Database  db.Database
	Config    *config.Config
	Logger    *zap.SugaredLogger
	Payments  Processor
	Notifier  Notifier
	Bot       Dispatcher
	Cache     *redis.Client
	Templates *template.Template
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Index renders the storefront. The rendered page is cached in redis; catalog
// writes from the admin console drop the cache.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Cache != nil {
		if page, err := h.Cache.Get(ctx, redisx.KeyStorefrontCache).Result(); err == nil && page != "" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(page))
			return
		}
	}

	products, err := h.Database.ListProducts()
	if err != nil {
		// Keep the page usable: render it empty rather than failing.
		h.Logger.Errorw("failed to load products", "error", err)
		products = nil
	}

	var buf bytes.Buffer
	if tmplErr := h.Templates.ExecuteTemplate(&buf, "index.html", map[string]any{"Products": products}); tmplErr != nil {
		h.Logger.Errorw("failed to render storefront", "error", tmplErr)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if h.Cache != nil && err == nil {
		if cacheErr := h.Cache.Set(ctx, redisx.KeyStorefrontCache, buf.String(), redisx.TTLStorefrontCache).Err(); cacheErr != nil {
			h.Logger.Warnw("failed to cache storefront", "error", cacheErr)
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

type createOrderRequest struct {
	ProductID int64  `json:"product_id"`
	Currency  string `json:"currency"`
}

type createOrderResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url"`
}

// CreateOrder places a storefront order and returns the processor's payment
// URL. The total is captured from the product at this moment and never
// re-read.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing product_id"})
		return
	}

	product, err := h.Database.GetProduct(req.ProductID)
	if err != nil {
		h.Logger.Errorw("failed to get product", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	if product == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}

	orderID, err := orderid.New(orderid.OriginWeb, time.Now())
	if err != nil {
		h.Logger.Errorw("failed to generate order id", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	order := models.Order{
		OrderID:     orderID,
		ProductID:   product.ID,
		TotalAmount: product.Price,
		OrderStatus: models.OrderPending,
	}
	if err := h.Database.PutOrder(order); err != nil {
		h.Logger.Errorw("failed to store order", "order_id", orderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	invoice, err := h.Payments.CreateInvoice(r.Context(), product.Price, orderID, req.Currency)
	if err != nil {
		h.Logger.Errorw("failed to create invoice", "order_id", orderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to create invoice"})
		return
	}

	if err := h.Database.SetOrderPaymentID(orderID, invoice.ID); err != nil {
		h.Logger.Errorw("failed to store payment id", "order_id", orderID, "error", err)
	}

	writeJSON(w, http.StatusOK, createOrderResponse{OrderID: orderID, PaymentURL: invoice.InvoiceURL})
}

// OrderStatus is polled by the storefront while the buyer pays.
func (h *Handler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	status, err := h.Database.GetOrderStatus(orderID)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": "not found"})
		return
	}
	if err != nil {
		h.Logger.Errorw("failed to get order status", "order_id", orderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": status.String()})
}

// CancelOrder cancels an order that is still pending; anything else is
// reported as not cancellable.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	cancelled, err := h.Database.CancelOrder(orderID)
	if err != nil {
		h.Logger.Errorw("failed to cancel order", "order_id", orderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}
	if !cancelled {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Order not found or not cancellable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) OrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Database.GetRecentOrders(recentOrdersLimit)
	if err != nil {
		h.Logger.Errorw("failed to load order history", "error", err)
		orders = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, "order_history.html", map[string]any{"Orders": orders}); err != nil {
		h.Logger.Errorw("failed to render order history", "error", err)
	}
}

// SubmitDelivery relays web-side delivery details to the operator chat.
func (h *Handler) SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	var req models.DeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.OrderID == "" || req.Method == "" || req.Details == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing fields"})
		return
	}

	if err := h.Notifier.NotifyOperator(req.OrderID, req.Method, req.Details); err != nil {
		h.Logger.Errorw("failed to notify operator", "order_id", req.OrderID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// BotWebhook receives Telegram update deliveries. The platform only needs a
// 200; update handling failures are logged, never surfaced.
func (h *Handler) BotWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.Logger.Warnw("failed to decode telegram update", "error", err)
	} else if h.Bot != nil {
		h.Bot.HandleUpdate(r.Context(), &update)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
