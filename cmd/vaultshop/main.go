package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/vaultshop/vault-shop/config"
	"github.com/vaultshop/vault-shop/internal/bot"
	"github.com/vaultshop/vault-shop/internal/db"
	"github.com/vaultshop/vault-shop/internal/handlers"
	"github.com/vaultshop/vault-shop/internal/middleware"
	"github.com/vaultshop/vault-shop/internal/payments"
	"github.com/vaultshop/vault-shop/internal/redisx"
	"github.com/vaultshop/vault-shop/internal/sessions"
	"github.com/vaultshop/vault-shop/internal/web"
	"github.com/vaultshop/vault-shop/logging"
)

func main() {
	_ = godotenv.Load()

	logger := logging.GetSugaredLogger()
	defer logger.Sync()

	cfg := config.GetConfig()

	database, err := db.NewManager(cfg)
	if err != nil {
		logger.Fatal(err)
	}
	defer database.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.Fatalw("failed to connect to telegram", "error", err)
	}
	webhook, err := tgbotapi.NewWebhook(cfg.WebhookURL)
	if err != nil {
		logger.Fatalw("failed to build webhook config", "error", err)
	}
	if _, err = api.Request(webhook); err != nil {
		logger.Fatalw("failed to set telegram webhook", "error", err)
	}

	processor := payments.NewClient(cfg, logger)

	shopBot := &bot.Bot{
		API:            api,
		Database:       database,
		Payments:       processor,
		Sessions:       &sessions.RedisStore{Client: rdb},
		OperatorChatID: cfg.OperatorChatID,
		Logger:         logger,
	}

	h := handlers.Handler{
		Database:  database,
		Config:    cfg,
		Logger:    logger,
		Payments:  processor,
		Notifier:  shopBot,
		Bot:       shopBot,
		Cache:     rdb,
		Templates: web.MustParse(),
	}

	r := initRouter(h)

	logger.Infow("starting server", "address", cfg.RunAddress)
	err = http.ListenAndServe(cfg.RunAddress, r)
	logger.Fatalw("failed to start server", "error", err)
}

func initRouter(h handlers.Handler) *chi.Mux {
	adminAuth := middleware.AdminAuth(h.Config.SessionSecret)

	r := chi.NewRouter()

	r.Get(`/`, middleware.Conveyor(
		http.HandlerFunc(h.Index),
		h.Logger,
		middleware.WriteWithCompression,
	).ServeHTTP)
	r.Post(`/create-order`, middleware.Conveyor(
		http.HandlerFunc(h.CreateOrder),
		h.Logger,
		middleware.WriteWithCompression,
		middleware.ReadWithCompression,
		middleware.RequireJSON,
	).ServeHTTP)
	r.Get(`/order-status/{id}`, middleware.Conveyor(
		http.HandlerFunc(h.OrderStatus),
		h.Logger,
		middleware.WriteWithCompression,
	).ServeHTTP)
	r.Post(`/cancel-order/{id}`, http.HandlerFunc(h.CancelOrder))
	r.Get(`/order-history`, middleware.Conveyor(
		http.HandlerFunc(h.OrderHistory),
		h.Logger,
		middleware.WriteWithCompression,
	).ServeHTTP)
	r.Post(`/submit-delivery`, middleware.Conveyor(
		http.HandlerFunc(h.SubmitDelivery),
		h.Logger,
		middleware.ReadWithCompression,
		middleware.RequireJSON,
	).ServeHTTP)

	r.Get(`/admin`, http.HandlerFunc(h.AdminLoginForm))
	r.Post(`/admin`, http.HandlerFunc(h.AdminLogin))
	r.Get(`/admin/panel`, middleware.Conveyor(
		http.HandlerFunc(h.AdminPanel),
		h.Logger,
		adminAuth,
	).ServeHTTP)
	r.Get(`/admin/add`, middleware.Conveyor(
		http.HandlerFunc(h.AdminAddForm),
		h.Logger,
		adminAuth,
	).ServeHTTP)
	r.Post(`/admin/add`, middleware.Conveyor(
		http.HandlerFunc(h.AdminAddProduct),
		h.Logger,
		adminAuth,
	).ServeHTTP)
	r.Get(`/admin/delete/{id}`, middleware.Conveyor(
		http.HandlerFunc(h.AdminDeleteProduct),
		h.Logger,
		adminAuth,
	).ServeHTTP)

	// Raw-body endpoints: the IPN signature covers the exact bytes received,
	// so no request rewriting middleware here.
	r.Post(`/ipn`, http.HandlerFunc(h.IPN))
	r.Post(`/bot-webhook`, http.HandlerFunc(h.BotWebhook))

	return r
}
