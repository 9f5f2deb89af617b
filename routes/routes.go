package routes

import (
	"net/http"

	"github.com/globizora/api-service/handlers"
	middleware "github.com/globizora/api-service/middlewares"
)

// Handlers bundles everything the HTTP surface is built from.
type Handlers struct {
	Users   *handlers.UserHandler
	Data    *handlers.DataHandler
	Stripe  *handlers.StripeHandler
	Info    *handlers.InfoHandler
	Contact *handlers.ContactHandler
	Auth    *middleware.Auth
}

func NewMux(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	RegisterUserRoutes(mux, h.Users, h.Auth)
	DataRoutes(mux, h.Data, h.Auth)
	StripeRoutes(mux, h.Stripe, h.Auth)
	InfoRoutes(mux, h.Info, h.Contact)

	return mux
}
