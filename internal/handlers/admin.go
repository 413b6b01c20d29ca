package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vaultshop/vault-shop/internal/auth"
	"github.com/vaultshop/vault-shop/internal/redisx"
	"github.com/vaultshop/vault-shop/models"
)

// AdminLoginForm shows the password prompt.
func (h *Handler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderAdminLogin(w, "")
}

// AdminLogin checks the submitted password against the configured one. A
// single shared secret with plain equality: the console serves one trusted
// operator, nothing more.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAdminLogin(w, "Invalid request")
		return
	}

	if r.FormValue("password") != h.Config.AdminPassword {
		h.Logger.Warnw("failed admin login attempt")
		h.renderAdminLogin(w, "Invalid password")
		return
	}

	token, err := auth.BuildSessionToken(h.Config.SessionSecret)
	if err != nil {
		h.Logger.Errorw("failed to build session token", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *Handler) AdminPanel(w http.ResponseWriter, r *http.Request) {
	products, err := h.Database.ListProducts()
	if err != nil {
		h.Logger.Errorw("failed to load products for admin panel", "error", err)
		products = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, "admin_panel.html", map[string]any{"Products": products}); err != nil {
		h.Logger.Errorw("failed to render admin panel", "error", err)
	}
}

func (h *Handler) AdminAddForm(w http.ResponseWriter, r *http.Request) {
	h.renderAddProduct(w, "")
}

// AdminAddProduct validates and stores a new product, then drops the cached
// storefront page so buyers see it immediately.
func (h *Handler) AdminAddProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAddProduct(w, "Invalid request")
		return
	}

	name := r.FormValue("name")
	description := r.FormValue("description")
	if name == "" || description == "" {
		h.renderAddProduct(w, "Name and description are required")
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		h.renderAddProduct(w, "Price must be a number of at least 0")
		return
	}

	product := models.Product{
		Name:        name,
		Price:       price,
		Description: description,
		ImageURL:    r.FormValue("image_url"),
	}
	if err := h.Database.AddProduct(product); err != nil {
		h.Logger.Errorw("failed to add product", "error", err)
		h.renderAddProduct(w, "Error adding product")
		return
	}

	h.dropStorefrontCache(r)
	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
		return
	}

	if err := h.Database.DeleteProduct(id); err != nil {
		h.Logger.Errorw("failed to delete product", "id", id, "error", err)
	} else {
		h.dropStorefrontCache(r)
	}

	http.Redirect(w, r, "/admin/panel", http.StatusSeeOther)
}

func (h *Handler) dropStorefrontCache(r *http.Request) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Del(r.Context(), redisx.KeyStorefrontCache).Err(); err != nil {
		h.Logger.Warnw("failed to drop storefront cache", "error", err)
	}
}

func (h *Handler) renderAdminLogin(w http.ResponseWriter, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, "admin_login.html", map[string]any{"Error": errMsg}); err != nil {
		h.Logger.Errorw("failed to render admin login", "error", err)
	}
}

func (h *Handler) renderAddProduct(w http.ResponseWriter, errMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.Templates.ExecuteTemplate(w, "add_product.html", map[string]any{"Error": errMsg}); err != nil {
		h.Logger.Errorw("failed to render add product form", "error", err)
	}
}
