package routes

import (
	"net/http"

	"github.com/globizora/api-service/handlers"
	middleware "github.com/globizora/api-service/middlewares"
)

func StripeRoutes(mux *http.ServeMux, s *handlers.StripeHandler, authMw *middleware.Auth) {
	mux.Handle("POST /subscribe", authMw.AuthMiddleware(http.HandlerFunc(s.CreateCheckoutSession)))
	mux.HandleFunc("POST /webhook/stripe", s.HandleWebhook)
}
