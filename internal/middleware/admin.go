package middleware

import (
	"net/http"

	"github.com/vaultshop/vault-shop/internal/auth"
	"go.uber.org/zap"
)

// AdminAuth sends anyone without a valid session cookie back to the login
// form. The secret is injected so tests can sign their own tokens.
func AdminAuth(secret string) Middleware {
	return func(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}

			if err := auth.ValidateSessionToken(cookie.Value, secret); err != nil {
				sugar.Errorw("invalid admin session", "error", err)
				http.Redirect(w, r, "/admin", http.StatusSeeOther)
				return
			}

			h.ServeHTTP(w, r)
		})
	}
}
