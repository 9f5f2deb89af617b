package routes

import (
	"net/http"

	"github.com/globizora/api-service/handlers"
	middleware "github.com/globizora/api-service/middlewares"
)

func DataRoutes(mux *http.ServeMux, dh *handlers.DataHandler, authMw *middleware.Auth) {
	mux.Handle("GET /data/{symbol}", authMw.AuthMiddleware(http.HandlerFunc(dh.GetData)))
	mux.Handle("GET /v1/data/{symbol}", authMw.APIKeyMiddleware(http.HandlerFunc(dh.GetData)))
}
