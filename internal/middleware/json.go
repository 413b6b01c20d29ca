package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RequireJSON rejects JSON endpoints called with a different content type.
func RequireJSON(h http.Handler, sugar *zap.SugaredLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType := r.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "application/json") {
			sugar.Error("wrong content type: " + contentType)
			http.Error(w, `{"error":"expected application/json"}`, http.StatusBadRequest)
			return
		}

		h.ServeHTTP(w, r)
	})
}
