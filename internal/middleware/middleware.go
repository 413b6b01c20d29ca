package middleware

import (
	"go.uber.org/zap"
	"net/http"
)

type Middleware func(http.Handler, *zap.SugaredLogger) http.Handler

func Conveyor(h http.Handler, sugar *zap.SugaredLogger, middlewares ...Middleware) http.Handler {
	for _, middleware := range middlewares {
		h = middleware(h, sugar)
	}
	return h
}
