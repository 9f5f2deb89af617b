package routes

import (
	"net/http"

	"github.com/globizora/api-service/handlers"
	middleware "github.com/globizora/api-service/middlewares"
)

func RegisterUserRoutes(mux *http.ServeMux, uh *handlers.UserHandler, authMw *middleware.Auth) {
	mux.HandleFunc("POST /auth/register", uh.Register)
	mux.HandleFunc("POST /auth/login", uh.Login)

	mux.Handle("GET /users", authMw.AuthMiddleware(http.HandlerFunc(uh.ListUsers)))
	mux.Handle("GET /me", authMw.AuthMiddleware(http.HandlerFunc(uh.Me)))
	mux.Handle("POST /apikey/generate", authMw.AuthMiddleware(http.HandlerFunc(uh.GenerateAPIKey)))
}
