package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaultshop/vault-shop/internal/auth"
)

func adminRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get(`/admin`, h.AdminLoginForm)
	r.Post(`/admin`, h.AdminLogin)
	r.Get(`/admin/panel`, h.AdminPanel)
	r.Get(`/admin/add`, h.AdminAddForm)
	r.Post(`/admin/add`, h.AdminAddProduct)
	r.Get(`/admin/delete/{id}`, h.AdminDeleteProduct)
	return r
}

func formRequest(path string, values string) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(values))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAdminLogin(t *testing.T) {
	t.Run("WrongPassword", func(t *testing.T) {
		h, _, _, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		adminRouter(h).ServeHTTP(rec, formRequest("/admin", "password=wrong"))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid password")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("CorrectPasswordSetsSession", func(t *testing.T) {
		h, _, _, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		adminRouter(h).ServeHTTP(rec, formRequest("/admin", "password=hunter2"))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/panel", rec.Header().Get("Location"))

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.SessionCookie, cookies[0].Name)
		assert.NoError(t, auth.ValidateSessionToken(cookies[0].Value, "session-secret"))
	})
}

func TestAdminPanel(t *testing.T) {
	h, mock, _, _ := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, name, price, description, image_url FROM products ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "description", "image_url"}).
			AddRow(1, "Widget", 9.99, "A widget", ""))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/panel", nil)
	adminRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminAddProduct(t *testing.T) {
	t.Run("MissingName", func(t *testing.T) {
		h, mock, _, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		adminRouter(h).ServeHTTP(rec, formRequest("/admin/add", "price=9.99&description=A+widget"))

		assert.Contains(t, rec.Body.String(), "required")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NegativePrice", func(t *testing.T) {
		h, mock, _, _ := newTestHandler(t)

		rec := httptest.NewRecorder()
		adminRouter(h).ServeHTTP(rec, formRequest("/admin/add", "name=Widget&price=-1&description=A+widget"))

		assert.Contains(t, rec.Body.String(), "at least 0")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		h, mock, _, _ := newTestHandler(t)

		mock.ExpectExec(`INSERT INTO products \(name, price, description, image_url\)`).
			WithArgs("Widget", 9.99, "A widget", "").
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := httptest.NewRecorder()
		adminRouter(h).ServeHTTP(rec, formRequest("/admin/add", "name=Widget&price=9.99&description=A+widget"))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/admin/panel", rec.Header().Get("Location"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdminDeleteProduct(t *testing.T) {
	h, mock, _, _ := newTestHandler(t)

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin/delete/3", nil)
	adminRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
