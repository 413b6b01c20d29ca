package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/vaultshop/vault-shop/internal/db"
	"github.com/vaultshop/vault-shop/internal/orderid"
	"github.com/vaultshop/vault-shop/internal/payments"
	"github.com/vaultshop/vault-shop/internal/sessions"
	"github.com/vaultshop/vault-shop/models"
	"go.uber.org/zap"
)

// Coins offered on the purchase confirmation keyboard.
var payCurrencies = []string{"BTC", "ETH", "LTC", "USDT", "BCH"}

// API is the slice of tgbotapi.BotAPI the bot uses; tests substitute a fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// InvoiceCreator is the payment processor as the bot sees it.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, amount float64, orderID string, payCurrency string) (*payments.Invoice, error)
}

// Bot drives the Telegram side of the shop: product browsing, purchase flow
// and the delivery-details conversation. It also relays operator
// notifications for both bot and web orders.
type Bot struct {
	API            API
	Database       db.Database
	Payments       InvoiceCreator
	Sessions       sessions.Store
	OperatorChatID int64
	Logger         *zap.SugaredLogger
}

// HandleUpdate processes one webhook-delivered update to completion.
func (b *Bot) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if _, err := b.API.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		b.Logger.Warnw("failed to answer callback query", "error", err)
	}

	data := cq.Data
	switch {
	case data == "view_products":
		b.viewProducts(cq)
	case strings.HasPrefix(data, "buy_"):
		b.buyProduct(cq, strings.TrimPrefix(data, "buy_"))
	case strings.HasPrefix(data, "confirm_"):
		b.confirmPurchase(ctx, cq, strings.TrimPrefix(data, "confirm_"))
	case strings.HasPrefix(data, "delivery_"):
		b.chooseDelivery(ctx, cq, strings.TrimPrefix(data, "delivery_"))
	default:
		b.Logger.Debugw("ignoring unknown callback", "data", data)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "/start" {
		b.start(msg.Chat.ID)
		return
	}

	b.receiveDetails(ctx, msg)
}

func (b *Bot) start(chatID int64) {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("View Products", "view_products"),
		),
	)

	reply := tgbotapi.NewMessage(chatID, "Welcome to Vault Shop!")
	reply.ReplyMarkup = markup
	if _, err := b.API.Send(reply); err != nil {
		b.Logger.Errorw("failed to send welcome message", "error", err)
	}
}

func (b *Bot) viewProducts(cq *tgbotapi.CallbackQuery) {
	products, err := b.Database.ListProducts()
	if err != nil {
		b.Logger.Errorw("failed to list products", "error", err)
		b.sendText(cq.Message.Chat.ID, "Could not load products, please try again later.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range products {
		label := fmt.Sprintf("%s - $%.2f", p.Name, p.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("buy_%d", p.ID)),
		))
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		"Select a product:",
		tgbotapi.NewInlineKeyboardMarkup(rows...),
	)
	if _, err := b.API.Send(edit); err != nil {
		b.Logger.Errorw("failed to edit product list", "error", err)
	}
}

func (b *Bot) buyProduct(cq *tgbotapi.CallbackQuery, rawID string) {
	productID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		b.Logger.Warnw("bad product id in callback", "data", cq.Data)
		return
	}

	product, err := b.Database.GetProduct(productID)
	if err != nil {
		b.Logger.Errorw("failed to get product", "error", err)
		return
	}
	if product == nil {
		b.sendText(cq.Message.Chat.ID, "That product is no longer available.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, coin := range payCurrencies {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(coin, fmt.Sprintf("confirm_%d_%s", product.ID, coin)),
		))
	}

	text := fmt.Sprintf("%s\nPrice: $%.2f\n%s\n\nChoose coin:", product.Name, product.Price, product.Description)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		text,
		tgbotapi.NewInlineKeyboardMarkup(rows...),
	)
	if _, err := b.API.Send(edit); err != nil {
		b.Logger.Errorw("failed to show product details", "error", err)
	}
}

func (b *Bot) confirmPurchase(ctx context.Context, cq *tgbotapi.CallbackQuery, rest string) {
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		b.Logger.Warnw("bad confirm callback", "data", cq.Data)
		return
	}
	productID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		b.Logger.Warnw("bad product id in confirm callback", "data", cq.Data)
		return
	}
	coin := parts[1]
	chatID := cq.Message.Chat.ID

	product, err := b.Database.GetProduct(productID)
	if err != nil {
		b.Logger.Errorw("failed to get product", "error", err)
		return
	}
	if product == nil {
		b.sendText(chatID, "That product is no longer available.")
		return
	}

	orderID, err := orderid.New(orderid.OriginBot, time.Now())
	if err != nil {
		b.Logger.Errorw("failed to generate order id", "error", err)
		return
	}

	order := models.Order{
		OrderID:        orderID,
		ProductID:      product.ID,
		TotalAmount:    product.Price,
		UserIdentifier: strconv.FormatInt(chatID, 10),
		OrderStatus:    models.OrderPending,
	}
	if err := b.Database.PutOrder(order); err != nil {
		b.Logger.Errorw("failed to store order", "order_id", orderID, "error", err)
		b.sendText(chatID, "Something went wrong creating your order, please try again.")
		return
	}

	invoice, err := b.Payments.CreateInvoice(ctx, product.Price, orderID, coin)
	if err != nil {
		b.Logger.Errorw("failed to create invoice", "order_id", orderID, "error", err)
		b.sendText(chatID, "We could not set up the payment for your order. Please try again later.")
		return
	}

	if err := b.Database.SetOrderPaymentID(orderID, invoice.ID); err != nil {
		b.Logger.Errorw("failed to store payment id", "order_id", orderID, "error", err)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Pay Now", invoice.InvoiceURL),
		),
	)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, cq.Message.MessageID,
		fmt.Sprintf("Order created: %s\nPay here:", orderID),
		markup,
	)
	if _, err := b.API.Send(edit); err != nil {
		b.Logger.Errorw("failed to send payment link", "order_id", orderID, "error", err)
	}
}

func (b *Bot) chooseDelivery(ctx context.Context, cq *tgbotapi.CallbackQuery, rest string) {
	// delivery_<method>_<orderID>
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		b.Logger.Warnw("bad delivery callback", "data", cq.Data)
		return
	}
	method, orderID := parts[0], parts[1]
	chatID := cq.Message.Chat.ID

	session := sessions.DeliverySession{OrderID: orderID, Method: method}
	if err := b.Sessions.Put(ctx, chatID, session); err != nil {
		b.Logger.Errorw("failed to store delivery session", "order_id", orderID, "error", err)
		b.sendText(chatID, "Something went wrong, please choose the delivery method again.")
		return
	}

	edit := tgbotapi.NewEditMessageText(
		chatID, cq.Message.MessageID,
		fmt.Sprintf("Enter your %s details:", method),
	)
	if _, err := b.API.Send(edit); err != nil {
		b.Logger.Errorw("failed to prompt for delivery details", "error", err)
	}
}

func (b *Bot) receiveDetails(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	session, err := b.Sessions.Get(ctx, chatID)
	if err != nil {
		b.Logger.Errorw("failed to read delivery session", "error", err)
		return
	}
	if session == nil {
		// Stray text outside a delivery conversation.
		b.start(chatID)
		return
	}

	if err := b.NotifyOperator(session.OrderID, session.Method, msg.Text); err != nil {
		b.Logger.Errorw("failed to notify operator", "order_id", session.OrderID, "error", err)
		b.sendText(chatID, "We could not submit your details, please try again.")
		return
	}

	if err := b.Sessions.Clear(ctx, chatID); err != nil {
		b.Logger.Warnw("failed to clear delivery session", "error", err)
	}

	b.sendText(chatID, "Details submitted! You will receive your product soon.")
}

// SendDeliveryPrompt offers the paid buyer a delivery method choice. The
// buyer identifier is the chat id the order was created with.
func (b *Bot) SendDeliveryPrompt(buyerID string, orderID string) error {
	chatID, err := strconv.ParseInt(buyerID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad buyer identifier %q: %w", buyerID, err)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Telegram", fmt.Sprintf("delivery_%s_%s", models.DeliveryTelegram, orderID)),
			tgbotapi.NewInlineKeyboardButtonData("Email", fmt.Sprintf("delivery_%s_%s", models.DeliveryEmail, orderID)),
		),
	)

	reply := tgbotapi.NewMessage(chatID, "Payment received! Choose delivery method:")
	reply.ReplyMarkup = markup
	if _, err := b.API.Send(reply); err != nil {
		return fmt.Errorf("failed to send delivery prompt: %w", err)
	}

	return nil
}

// NotifyOperator relays a delivery request to the operator chat.
func (b *Bot) NotifyOperator(orderID string, method string, details string) error {
	text := fmt.Sprintf("New Order: %s\nDelivery: %s (%s)", orderID, method, details)
	if _, err := b.API.Send(tgbotapi.NewMessage(b.OperatorChatID, text)); err != nil {
		return fmt.Errorf("failed to notify operator: %w", err)
	}

	return nil
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.API.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.Logger.Errorw("failed to send message", "error", err)
	}
}
