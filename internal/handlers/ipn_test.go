package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func ipnRequest(body []byte, signature string) *http.Request {
	req := httptest.NewRequest("POST", "/ipn", bytes.NewReader(body))
	req.Header.Set(SignatureHeader, signature)
	return req
}

func TestIPNInvalidSignature(t *testing.T) {
	h, mock, notifier, _ := newTestHandler(t)

	body := []byte(`{"payment_status":"finished","order_id":"B-ABC123-300825"}`)

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, ipnRequest(body, "deadbeef"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid signature")
	assert.Empty(t, notifier.prompts)
	// No storage expectations were set: a bad signature must not touch state.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIPNFinishedMarksPaidAndNotifiesOnce(t *testing.T) {
	h, mock, notifier, _ := newTestHandler(t)

	body := []byte(`{"payment_status":"finished","order_id":"B-ABC123-300825","payment_id":5077125051}`)
	signature := signBody("ipn-secret", body)

	mock.ExpectQuery(`UPDATE orders SET order_status = \$2, paid_at = CURRENT_TIMESTAMP WHERE order_id = \$1 AND order_status = \$3 RETURNING user_identifier`).
		WithArgs("B-ABC123-300825", "paid", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"user_identifier"}).AddRow("42"))

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, ipnRequest(body, signature))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	require.Len(t, notifier.prompts, 1)
	assert.Equal(t, deliveryPrompt{"42", "B-ABC123-300825"}, notifier.prompts[0])

	// Replaying the identical notification matches no pending row and must
	// not notify again.
	mock.ExpectQuery(`UPDATE orders SET order_status = \$2, paid_at = CURRENT_TIMESTAMP WHERE order_id = \$1 AND order_status = \$3 RETURNING user_identifier`).
		WithArgs("B-ABC123-300825", "paid", "pending").
		WillReturnError(sql.ErrNoRows)

	rec = httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, ipnRequest(body, signature))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.prompts, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIPNFinishedWebOrderSkipsPrompt(t *testing.T) {
	h, mock, notifier, _ := newTestHandler(t)

	body := []byte(`{"payment_status":"finished","order_id":"W-ABC123-300825"}`)

	mock.ExpectQuery(`UPDATE orders SET order_status = \$2, paid_at = CURRENT_TIMESTAMP WHERE order_id = \$1 AND order_status = \$3 RETURNING user_identifier`).
		WithArgs("W-ABC123-300825", "paid", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"user_identifier"}).AddRow(""))

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, ipnRequest(body, signBody("ipn-secret", body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, notifier.prompts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIPNFailedCancelsPendingOrder(t *testing.T) {
	h, mock, notifier, _ := newTestHandler(t)

	body := []byte(`{"payment_status":"failed","order_id":"W-ABC123-300825"}`)

	mock.ExpectExec(`UPDATE orders SET order_status = \$2 WHERE order_id = \$1 AND order_status = \$3`).
		WithArgs("W-ABC123-300825", "cancelled", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	testRouter(h).ServeHTTP(rec, ipnRequest(body, signBody("ipn-secret", body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, notifier.prompts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIPNIntermediateStatusIsAcknowledged(t *testing.T) {
	h, mock, notifier, _ := newTestHandler(t)

	for _, status := range []string{"waiting", "confirming", "sending", "partially_paid", "something_new"} {
		body := []byte(`{"payment_status":"` + status + `","order_id":"W-ABC123-300825"}`)

		rec := httptest.NewRecorder()
		testRouter(h).ServeHTTP(rec, ipnRequest(body, signBody("ipn-secret", body)))

		assert.Equal(t, http.StatusOK, rec.Code, "status %s", status)
	}

	assert.Empty(t, notifier.prompts)
	require.NoError(t, mock.ExpectationsWereMet())
}
