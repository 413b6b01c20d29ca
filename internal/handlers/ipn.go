package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/vaultshop/vault-shop/models"
)

// SignatureHeader carries the processor's hex HMAC-SHA512 of the raw body.
const SignatureHeader = "x-nowpayments-sig"

// IPN handles the processor's asynchronous payment notifications. The
// signature is verified over the raw body before anything is decoded; a
// mismatch mutates nothing. Transitions only fire on orders that are still
// pending, so replayed notifications are no-ops and never re-notify the buyer.
func (h *Handler) IPN(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	if !h.Payments.ValidateSignature(body, r.Header.Get(SignatureHeader)) {
		h.Logger.Warnw("invalid IPN signature")
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	var note models.PaymentNotification
	if err := json.Unmarshal(body, &note); err != nil {
		h.Logger.Warnw("failed to decode IPN body", "error", err)
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	target, ok := note.PaymentStatus.OrderTransition()
	if !ok {
		h.Logger.Infow("ignoring payment status", "order_id", note.OrderID, "payment_status", note.PaymentStatus)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
		return
	}

	switch target {
	case models.OrderPaid:
		buyerID, updated, err := h.Database.MarkOrderPaid(note.OrderID)
		if err != nil {
			h.Logger.Errorw("failed to mark order paid", "order_id", note.OrderID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if !updated {
			h.Logger.Infow("order not pending, ignoring notification", "order_id", note.OrderID)
			break
		}

		h.Logger.Infow("order marked as paid", "order_id", note.OrderID)
		if buyerID != "" {
			if err := h.Notifier.SendDeliveryPrompt(buyerID, note.OrderID); err != nil {
				h.Logger.Errorw("failed to send delivery prompt", "order_id", note.OrderID, "error", err)
			}
		}

	case models.OrderCancelled:
		cancelled, err := h.Database.CancelOrder(note.OrderID)
		if err != nil {
			h.Logger.Errorw("failed to cancel order", "order_id", note.OrderID, "error", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		if cancelled {
			h.Logger.Infow("order cancelled by processor", "order_id", note.OrderID, "payment_status", note.PaymentStatus)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
